package pdfrender

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Viewport is the pixel size a page is rendered at
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// NewViewport scales a native page size. Fractional pixels are dropped, as a canvas does.
func NewViewport(width, height, scale float64) Viewport {
	return Viewport{
		Width:  int(math.Floor(width * scale)),
		Height: int(math.Floor(height * scale)),
		Scale:  scale,
	}
}

// DPI is the render resolution matching the viewport scale (PDF space is 72 points per inch)
func (v Viewport) DPI() float64 {
	return 72 * v.Scale
}

// SmoothingQuality selects the resampling filter used when a backend image has to be fitted to the surface
type SmoothingQuality int

const (
	SmoothingLow SmoothingQuality = iota
	SmoothingMedium
	SmoothingHigh
)

func (q SmoothingQuality) String() string {
	switch q {
	case SmoothingLow:
		return "low"
	case SmoothingMedium:
		return "medium"
	case SmoothingHigh:
		return "high"
	default:
		return fmt.Sprintf("SmoothingQuality(%d)", int(q))
	}
}

// Surface is the pixel buffer a page is rendered onto
type Surface struct {
	img *image.NRGBA

	SmoothingEnabled bool
	SmoothingQuality SmoothingQuality
}

// NewSurface allocates a surface of exactly width x height pixels
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("cannot allocate %dx%d surface", width, height)
	}
	return &Surface{
		img:              image.NewNRGBA(image.Rect(0, 0, width, height)),
		SmoothingEnabled: true,
		SmoothingQuality: SmoothingLow,
	}, nil
}

// Width of the surface in pixels
func (s *Surface) Width() int { return s.img.Bounds().Dx() }

// Height of the surface in pixels
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Image exposes the pixels
func (s *Surface) Image() *image.NRGBA { return s.img }

// Draw copies src onto the surface, resampling it when its size differs
func (s *Surface) Draw(src image.Image) {
	b := src.Bounds()
	if b.Dx() != s.Width() || b.Dy() != s.Height() {
		src = imaging.Resize(src, s.Width(), s.Height(), s.filter())
		b = src.Bounds()
	}
	draw.Draw(s.img, s.img.Bounds(), src, b.Min, draw.Src)
}

func (s *Surface) filter() imaging.ResampleFilter {
	if !s.SmoothingEnabled {
		return imaging.NearestNeighbor
	}
	switch s.SmoothingQuality {
	case SmoothingHigh:
		return imaging.Lanczos
	case SmoothingMedium:
		return imaging.CatmullRom
	default:
		return imaging.Linear
	}
}
