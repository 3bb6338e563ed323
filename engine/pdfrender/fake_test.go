package pdfrender

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
)

// fakeModule decodes any input starting with "%PDF" into a single page document
type fakeModule struct {
	workerSourceOnce
	configured atomic.Int32
	pageWidth  float64
	pageHeight float64
	pages      int
	renderErr  error
	panicOn    Stage
}

func newFakeModule() *fakeModule {
	return &fakeModule{pageWidth: 120, pageHeight: 160, pages: 1}
}

func (m *fakeModule) Version() string { return "fake" }

func (m *fakeModule) SetWorkerSource(src string) error {
	m.configured.Add(1)
	return m.set(src)
}

func (m *fakeModule) WorkerSource() string { return m.get() }

func (m *fakeModule) Open(ctx context.Context, data []byte) (Document, error) {
	if m.panicOn == StageDecode {
		panic("decoder crashed")
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, errors.New("Invalid PDF structure")
	}
	return &fakeDocument{module: m}, nil
}

type fakeDocument struct {
	module *fakeModule
	closed bool
}

func (d *fakeDocument) NumPages() int { return d.module.pages }

func (d *fakeDocument) Page(ctx context.Context, n int) (Page, error) {
	if n < 1 || n > d.module.pages {
		return nil, errors.New("Invalid page request")
	}
	return &fakePage{module: d.module}, nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakePage struct {
	module *fakeModule
}

func (p *fakePage) Size() (float64, float64) { return p.module.pageWidth, p.module.pageHeight }

func (p *fakePage) Render(ctx context.Context, surface *Surface, viewport Viewport) error {
	if p.module.renderErr != nil {
		return p.module.renderErr
	}
	src := image.NewNRGBA(image.Rect(0, 0, viewport.Width/2, viewport.Height/2))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	src.Set(0, 0, color.Black)
	surface.Draw(src)
	return nil
}

// fakeImporter hands out the same module and counts invocations
func fakeImporter(m Module) (Importer, *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) (Module, error) {
		calls.Add(1)
		return m, nil
	}, &calls
}

type failingEncoder struct {
	err error
}

func (e failingEncoder) Encode(img image.Image) ([]byte, error) {
	return nil, e.err
}
