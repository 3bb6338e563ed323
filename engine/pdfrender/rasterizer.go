package pdfrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"regexp"
	"time"
)

// RenderScale is the fixed up-scaling applied to the first page
const RenderScale = 4.0

// PNGType is the MIME type of every rasterized file
const PNGType = "image/png"

const (
	encodeFailureMessage = "Failed to create image blob"
	convertFailurePrefix = "Failed to convert PDF: "
)

var pdfSuffix = regexp.MustCompile(`(?i)\.pdf$`)

// Stage names a step of the rasterization pipeline
type Stage string

const (
	StageLoad     Stage = "load"
	StageRead     Stage = "read"
	StageDecode   Stage = "decode"
	StagePage     Stage = "page"
	StageViewport Stage = "viewport"
	StageSurface  Stage = "surface"
	StageRender   Stage = "render"
	StageEncode   Stage = "encode"
	StagePackage  Stage = "package"
)

// Stages lists the pipeline in execution order
var Stages = []Stage{StageLoad, StageRead, StageDecode, StagePage, StageViewport, StageSurface, StageRender, StageEncode, StagePackage}

// StageHook observes each pipeline stage after it ran. err is nil on success.
type StageHook func(ctx context.Context, stage Stage, elapsed time.Duration, err error)

// Encoder serializes a rendered surface
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
}

// PNGEncoder writes lossless PNG
type PNGEncoder struct {
	CompressionLevel png.CompressionLevel
}

// Encode implements Encoder
func (e PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: e.CompressionLevel}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// File is a named, typed in-memory file
type File struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Data         []byte    `json:"-"`
	LastModified time.Time `json:"lastModified"`
}

// Size returns the length of the content in bytes
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// ConversionResult is what RasterizeFirstPage hands back: an image URL and file, or an error message
type ConversionResult struct {
	ImageURL string `json:"imageUrl"`
	File     *File  `json:"file"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the conversion produced an image
func (r ConversionResult) OK() bool {
	return r.Error == "" && r.File != nil && r.ImageURL != ""
}

// Rasterizer converts the first page of a document into a PNG file
type Rasterizer struct {
	loader  *Loader
	encoder Encoder
	urls    *ObjectURLs
	hook    StageHook
	now     func() time.Time
}

// RasterizerOption configures a Rasterizer
type RasterizerOption func(*Rasterizer)

// WithEncoder replaces the PNG encoder
func WithEncoder(enc Encoder) RasterizerOption {
	return func(r *Rasterizer) { r.encoder = enc }
}

// WithObjectURLs sets the registry that issues image URLs
func WithObjectURLs(urls *ObjectURLs) RasterizerOption {
	return func(r *Rasterizer) { r.urls = urls }
}

// WithStageHook installs a stage observer
func WithStageHook(hook StageHook) RasterizerOption {
	return func(r *Rasterizer) { r.hook = hook }
}

// NewRasterizer creates a rasterizer drawing its library from loader
func NewRasterizer(loader *Loader, opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{
		loader:  loader,
		encoder: PNGEncoder{CompressionLevel: png.DefaultCompression},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.urls == nil {
		r.urls = NewObjectURLs(0)
	}
	return r
}

// ObjectURLs returns the registry image URLs are issued from
func (r *Rasterizer) ObjectURLs() *ObjectURLs {
	return r.urls
}

// OutputName derives the PNG file name from the uploaded name
func OutputName(originalName string) string {
	return pdfSuffix.ReplaceAllString(originalName, "") + ".png"
}

// RasterizeFirstPage renders page 1 of src at RenderScale and packages it as a PNG.
// It never returns an error or panics; failures are reported in ConversionResult.Error.
func (r *Rasterizer) RasterizeFirstPage(ctx context.Context, src io.Reader, originalName string) (result ConversionResult) {
	defer func() {
		if p := recover(); p != nil {
			result = failure(fmt.Errorf("%v", p))
		}
	}()

	encoded, err := r.render(ctx, src)
	if err != nil {
		return failure(err)
	}

	var file *File
	err = r.stage(ctx, StagePackage, func() error {
		file = &File{
			Name:         OutputName(originalName),
			Type:         PNGType,
			Data:         encoded,
			LastModified: r.now(),
		}
		return nil
	})
	if err != nil {
		return failure(err)
	}

	return ConversionResult{
		ImageURL: r.urls.Create(file.Data, file.Type),
		File:     file,
	}
}

// render runs the load..encode stages and returns the PNG bytes
func (r *Rasterizer) render(ctx context.Context, src io.Reader) ([]byte, error) {
	var module Module
	err := r.stage(ctx, StageLoad, func() (err error) {
		module, err = r.loader.EnsureLoaded(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var data []byte
	err = r.stage(ctx, StageRead, func() (err error) {
		data, err = io.ReadAll(src)
		return err
	})
	if err != nil {
		return nil, err
	}

	var doc Document
	err = r.stage(ctx, StageDecode, func() error {
		d, err := module.Open(ctx, data)
		if err != nil {
			return &DecodeError{Err: err}
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	var page Page
	err = r.stage(ctx, StagePage, func() error {
		p, err := doc.Page(ctx, 1)
		if err != nil {
			return &DecodeError{Err: err}
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	var viewport Viewport
	r.stage(ctx, StageViewport, func() error {
		w, h := page.Size()
		viewport = NewViewport(w, h, RenderScale)
		return nil
	})

	var surface *Surface
	err = r.stage(ctx, StageSurface, func() (err error) {
		surface, err = NewSurface(viewport.Width, viewport.Height)
		if err != nil {
			return err
		}
		surface.SmoothingEnabled = true
		surface.SmoothingQuality = SmoothingHigh
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageRender, func() error {
		return page.Render(ctx, surface, viewport)
	})
	if err != nil {
		return nil, err
	}

	var encoded []byte
	err = r.stage(ctx, StageEncode, func() error {
		out, err := r.encoder.Encode(surface.Image())
		if err != nil {
			return &EncodeError{Err: err}
		}
		if len(out) == 0 {
			return &EncodeError{Err: errors.New("encoder produced no data")}
		}
		encoded = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func (r *Rasterizer) stage(ctx context.Context, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	if r.hook != nil {
		r.hook(ctx, stage, time.Since(start), err)
	}
	return err
}

func failure(err error) ConversionResult {
	var encErr *EncodeError
	if errors.As(err, &encErr) {
		return ConversionResult{Error: encodeFailureMessage}
	}
	return ConversionResult{Error: convertFailurePrefix + err.Error()}
}
