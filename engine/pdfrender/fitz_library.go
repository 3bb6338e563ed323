package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// fitzModule renders with MuPDF through go-fitz (needs CGo or a MuPDF shared library)
type fitzModule struct {
	workerSourceOnce
}

// ImportFitz is an Importer for the MuPDF backend
func ImportFitz(ctx context.Context) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &fitzModule{}, nil
}

func (m *fitzModule) Version() string { return "mupdf" }

func (m *fitzModule) SetWorkerSource(src string) error { return m.set(src) }

func (m *fitzModule) WorkerSource() string { return m.get() }

// Open decodes an in-memory document
func (m *fitzModule) Open(ctx context.Context, data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDocument{doc: doc, data: data}, nil
}

type fitzDocument struct {
	doc  *fitz.Document
	data []byte
}

func (d *fitzDocument) NumPages() int { return d.doc.NumPage() }

func (d *fitzDocument) Page(ctx context.Context, n int) (Page, error) {
	if n < 1 || n > d.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range, document has %d pages", n, d.doc.NumPage())
	}
	// fitz rounds bounds to whole points, the page dictionary keeps the exact box
	width, height, err := PageBox(d.data, n)
	if err != nil {
		bound, boundErr := d.doc.Bound(n - 1)
		if boundErr != nil {
			return nil, fmt.Errorf("unable to read page %d bounds: %w", n, boundErr)
		}
		width, height = float64(bound.Dx()), float64(bound.Dy())
	}
	return &fitzPage{doc: d.doc, index: n - 1, width: width, height: height}, nil
}

func (d *fitzDocument) Close() error { return d.doc.Close() }

type fitzPage struct {
	doc           *fitz.Document
	index         int
	width, height float64
}

func (p *fitzPage) Size() (float64, float64) { return p.width, p.height }

func (p *fitzPage) Render(ctx context.Context, surface *Surface, viewport Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := p.doc.ImageDPI(p.index, viewport.DPI())
	if err != nil {
		return fmt.Errorf("unable to render page %d: %w", p.index+1, err)
	}
	surface.Draw(img)
	return nil
}

// PageBox returns the visible size of page n in points: the CropBox, or the MediaBox
// when there is none, both possibly inherited from the page tree, swapped for
// quarter turn rotations.
func PageBox(data []byte, n int) (width, height float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("unable to parse page %d: %v", n, p)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, 0, err
	}
	if n < 1 || n > reader.NumPage() {
		return 0, 0, fmt.Errorf("page %d out of range, document has %d pages", n, reader.NumPage())
	}
	page := reader.Page(n).V

	box := inherited(page, "CropBox")
	if box.Len() != 4 {
		box = inherited(page, "MediaBox")
	}
	if box.Len() != 4 {
		return 0, 0, fmt.Errorf("page %d has no media box", n)
	}
	width = math.Abs(box.Index(2).Float64() - box.Index(0).Float64())
	height = math.Abs(box.Index(3).Float64() - box.Index(1).Float64())
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("page %d has an empty media box", n)
	}

	if rotate := inherited(page, "Rotate").Int64(); ((rotate%360)+360)%180 == 90 {
		width, height = height, width
	}
	return width, height, nil
}

// inherited looks key up on the page and then on each ancestor in the page tree
func inherited(page pdf.Value, key string) pdf.Value {
	for v, depth := page, 0; !v.IsNull() && depth < 32; v, depth = v.Key("Parent"), depth+1 {
		if found := v.Key(key); !found.IsNull() {
			return found
		}
	}
	return pdf.Value{}
}
