package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PoolConfig sizes the PDFium WebAssembly worker pool
type PoolConfig struct {
	MinIdle         int
	MaxIdle         int
	MaxTotal        int
	InstanceTimeout time.Duration
}

// DefaultPoolConfig keeps a single worker, so previews render one at a time
var DefaultPoolConfig = PoolConfig{MinIdle: 1, MaxIdle: 1, MaxTotal: 1, InstanceTimeout: 30 * time.Second}

// pdfiumModule renders with PDFium compiled to WebAssembly (pure Go, no CGo).
// Every open document checks out its own pool instance, so MaxTotal documents render in parallel.
type pdfiumModule struct {
	workerSourceOnce

	mu      sync.RWMutex
	pool    pdfium.Pool
	timeout time.Duration
}

// ImportPDFium returns an Importer that compiles the PDFium module and starts its worker pool
func ImportPDFium(cfg PoolConfig) Importer {
	return func(ctx context.Context) (Module, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.InstanceTimeout <= 0 {
			cfg.InstanceTimeout = DefaultPoolConfig.InstanceTimeout
		}
		if cfg.MaxTotal < 1 {
			cfg.MaxTotal = 1
		}
		if cfg.MaxIdle < 1 || cfg.MaxIdle > cfg.MaxTotal {
			cfg.MaxIdle = cfg.MaxTotal
		}
		pool, err := webassembly.Init(webassembly.Config{
			MinIdle:  cfg.MinIdle,
			MaxIdle:  cfg.MaxIdle,
			MaxTotal: cfg.MaxTotal,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
		}

		// check one instance out and back in so a broken build fails the import, not the first upload
		instance, err := pool.GetInstance(cfg.InstanceTimeout)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
		}
		instance.Close()
		return &pdfiumModule{pool: pool, timeout: cfg.InstanceTimeout}, nil
	}
}

func (m *pdfiumModule) Version() string { return "pdfium-wasm" }

func (m *pdfiumModule) SetWorkerSource(src string) error { return m.set(src) }

func (m *pdfiumModule) WorkerSource() string { return m.get() }

// Open decodes an in-memory document on an instance it keeps until the document is closed
func (m *pdfiumModule) Open(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	pool := m.pool
	m.mu.RUnlock()
	if pool == nil {
		return nil, errors.New("PDFium pool is closed")
	}

	instance, err := pool.GetInstance(m.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	count, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		instance.Close()
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}
	return &pdfiumDocument{instance: instance, doc: doc.Document, pages: count.PageCount}, nil
}

// Close shuts the worker pool down
func (m *pdfiumModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool == nil {
		return nil
	}
	err := m.pool.Close()
	m.pool = nil
	return err
}

// pdfiumDocument owns a pool instance, which is not safe for concurrent requests
type pdfiumDocument struct {
	mu       sync.Mutex
	instance pdfium.Pdfium
	doc      references.FPDF_DOCUMENT
	pages    int
}

func (d *pdfiumDocument) NumPages() int { return d.pages }

func (d *pdfiumDocument) Page(ctx context.Context, n int) (Page, error) {
	if n < 1 || n > d.pages {
		return nil, fmt.Errorf("page %d out of range, document has %d pages", n, d.pages)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	size, err := d.instance.GetPageSize(&requests.GetPageSize{Page: d.pageRef(n)})
	if err != nil {
		return nil, fmt.Errorf("unable to read page %d size: %w", n, err)
	}
	return &pdfiumPage{doc: d, number: n, width: size.Width, height: size.Height}, nil
}

// Close releases the document and hands the instance back to the pool
func (d *pdfiumDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.instance == nil {
		return nil
	}
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: d.doc})
	if closeErr := d.instance.Close(); err == nil {
		err = closeErr
	}
	d.instance = nil
	return err
}

func (d *pdfiumDocument) pageRef(n int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: d.doc,
			Index:    n - 1,
		},
	}
}

type pdfiumPage struct {
	doc           *pdfiumDocument
	number        int
	width, height float64
}

func (p *pdfiumPage) Size() (float64, float64) { return p.width, p.height }

func (p *pdfiumPage) Render(ctx context.Context, surface *Surface, viewport Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()

	render, err := p.doc.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   p.doc.pageRef(p.number),
		Width:  viewport.Width,
		Height: viewport.Height,
	})
	if err != nil {
		return fmt.Errorf("unable to render page %d: %w", p.number, err)
	}
	defer render.Cleanup()

	surface.Draw(render.Result.Image)
	return nil
}
