// Package pdfrender turns the first page of a PDF into a PNG preview.
//
// The rendering library is reached through the Module, Document and Page
// interfaces so that the PDFium and MuPDF backends (and test doubles) can be
// swapped freely. A Loader initializes the Module at most once; a Rasterizer
// runs the conversion pipeline on top of it.
package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultWorkerSource is the pinned worker resource configured on every
// freshly loaded module.
const DefaultWorkerSource = "embedded://pdfium/v1.17.2/pdfium.wasm"

// ErrWorkerSourceSet is returned when a module is configured a second time.
var ErrWorkerSourceSet = errors.New("worker source already configured")

// Module is an initialized rendering library
type Module interface {
	// Version identifies the backend, e.g. "pdfium-wasm"
	Version() string
	// SetWorkerSource configures the worker resource. It may only be called once.
	SetWorkerSource(src string) error
	// WorkerSource returns the configured worker resource, empty until set
	WorkerSource() string
	// Open decodes a document from raw bytes
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is a decoded PDF
type Document interface {
	NumPages() int
	// Page returns page n, counting from 1
	Page(ctx context.Context, n int) (Page, error)
	Close() error
}

// Page is a single decoded page
type Page interface {
	// Size returns the native page size in points
	Size() (width, height float64)
	// Render draws the page onto surface, scaled to viewport, and returns once drawing has finished
	Render(ctx context.Context, surface *Surface, viewport Viewport) error
}

// Importer loads a rendering library. It is the expensive step the Loader runs once.
type Importer func(ctx context.Context) (Module, error)

// InitializationError reports that the rendering library could not be loaded or configured
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("rendering library initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// DecodeError reports bytes that are not a usable document, or a document without a first page
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid PDF document: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that a rendered surface could not be serialized
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return encodeFailureMessage
}

func (e *EncodeError) Unwrap() error { return e.Err }

// workerSourceOnce is embedded by modules to get write-once worker configuration
type workerSourceOnce struct {
	mu  sync.RWMutex
	src string
}

func (w *workerSourceOnce) get() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.src
}

func (w *workerSourceOnce) set(src string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.src != "" {
		return ErrWorkerSourceSet
	}
	if src == "" {
		return errors.New("worker source must not be empty")
	}
	w.src = src
	return nil
}
