package pdfrender

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestLoaderSingleFlight checks that concurrent callers share one import
func TestLoaderSingleFlight(t *testing.T) {
	module := newFakeModule()
	release := make(chan struct{})
	var calls atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		calls.Add(1)
		<-release
		return module, nil
	})

	const callers = 50
	var wg sync.WaitGroup
	results := make([]Module, callers)
	errs := make([]error, callers)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			results[i], errs[i] = loader.EnsureLoaded(context.Background())
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	// give the goroutines time to join the in-flight import
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("Expected exactly 1 import, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("Caller %d got error: %v", i, errs[i])
		}
		if results[i] != module {
			t.Fatalf("Caller %d got a different module", i)
		}
	}
	if loader.Imports() != 1 {
		t.Errorf("Imports() = %d, want 1", loader.Imports())
	}
}

// TestLoaderCachesHandle checks later calls reuse the module without importing again
func TestLoaderCachesHandle(t *testing.T) {
	module := newFakeModule()
	importer, calls := fakeImporter(module)
	loader := NewLoader(importer)

	if loader.Loaded() {
		t.Fatal("Loader should start unloaded")
	}
	for i := 0; i < 5; i++ {
		got, err := loader.EnsureLoaded(context.Background())
		if err != nil {
			t.Fatalf("EnsureLoaded failed: %v", err)
		}
		if got != module {
			t.Fatal("EnsureLoaded returned a different module")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 import, got %d", calls.Load())
	}
	if !loader.Loaded() {
		t.Error("Loader should report loaded")
	}
}

// TestLoaderWorkerSourceConfiguredOnce checks the worker resource is set once and never overwritten
func TestLoaderWorkerSourceConfiguredOnce(t *testing.T) {
	module := newFakeModule()
	importer, _ := fakeImporter(module)
	loader := NewLoader(importer, WithWorkerSource("https://workers.example/pdf.worker.js"))

	for i := 0; i < 3; i++ {
		if _, err := loader.EnsureLoaded(context.Background()); err != nil {
			t.Fatalf("EnsureLoaded failed: %v", err)
		}
	}
	if got := module.configured.Load(); got != 1 {
		t.Errorf("SetWorkerSource called %d times, want 1", got)
	}
	if module.WorkerSource() != "https://workers.example/pdf.worker.js" {
		t.Errorf("WorkerSource = %q", module.WorkerSource())
	}
	if err := module.SetWorkerSource("other"); !errors.Is(err, ErrWorkerSourceSet) {
		t.Errorf("Second SetWorkerSource should fail with ErrWorkerSourceSet, got %v", err)
	}
	if module.WorkerSource() != "https://workers.example/pdf.worker.js" {
		t.Error("Worker source was overwritten")
	}
}

func TestLoaderDefaultWorkerSource(t *testing.T) {
	module := newFakeModule()
	importer, _ := fakeImporter(module)
	loader := NewLoader(importer)
	if _, err := loader.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded failed: %v", err)
	}
	if module.WorkerSource() != DefaultWorkerSource {
		t.Errorf("WorkerSource = %q, want %q", module.WorkerSource(), DefaultWorkerSource)
	}
}

// TestLoaderRetriesAfterFailure checks the default policy clears a failed import
func TestLoaderRetriesAfterFailure(t *testing.T) {
	module := newFakeModule()
	var calls atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("network unreachable")
		}
		return module, nil
	})

	_, err := loader.EnsureLoaded(context.Background())
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Expected InitializationError, got %v", err)
	}

	got, err := loader.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("Retry should succeed, got %v", err)
	}
	if got != module {
		t.Error("Retry returned a different module")
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 imports, got %d", calls.Load())
	}
}

// TestLoaderCacheFailurePolicy checks that an opted-in cached failure is replayed
func TestLoaderCacheFailurePolicy(t *testing.T) {
	var calls atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		calls.Add(1)
		return nil, errors.New("import failed")
	}, WithFailurePolicy(CacheFailure))

	_, first := loader.EnsureLoaded(context.Background())
	_, second := loader.EnsureLoaded(context.Background())
	if first == nil || second == nil {
		t.Fatal("Expected both calls to fail")
	}
	if first != second {
		t.Errorf("Expected the same cached error, got %v and %v", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 import, got %d", calls.Load())
	}
}

// TestLoaderSharedFailure checks concurrent callers all see the same rejection
func TestLoaderSharedFailure(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		calls.Add(1)
		<-release
		return nil, errors.New("cdn down")
	})

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loader.EnsureLoaded(context.Background())
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		var initErr *InitializationError
		if !errors.As(err, &initErr) {
			t.Errorf("Expected InitializationError, got %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 import, got %d", calls.Load())
	}
}

// TestLoaderWorkerSourceFailure checks a configuration failure counts as an initialization failure
func TestLoaderWorkerSourceFailure(t *testing.T) {
	module := newFakeModule()
	importer, _ := fakeImporter(module)
	loader := NewLoader(importer, WithWorkerSource(""))

	_, err := loader.EnsureLoaded(context.Background())
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Expected InitializationError, got %v", err)
	}
	if loader.Loaded() {
		t.Error("Loader must not cache an unconfigured module")
	}
}

// TestLoaderCallerCancellation checks a cancelled caller stops waiting while the import completes for others
func TestLoaderCallerCancellation(t *testing.T) {
	module := newFakeModule()
	release := make(chan struct{})
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		<-release
		return module, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loader.EnsureLoaded(ctx)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Cancelled caller kept waiting")
	}

	close(release)
	got, err := loader.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("Shared import should not be cancelled: %v", err)
	}
	if got != module {
		t.Error("Unexpected module")
	}
	if loader.Imports() != 1 {
		t.Errorf("Imports() = %d, want 1", loader.Imports())
	}
}

func TestLoaderClose(t *testing.T) {
	module := newFakeModule()
	importer, calls := fakeImporter(module)
	loader := NewLoader(importer)
	if _, err := loader.EnsureLoaded(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := loader.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if loader.Loaded() {
		t.Error("Loader should be empty after Close")
	}
	// the fake module keeps its worker source, so reloading the same instance fails configuration
	if _, err := loader.EnsureLoaded(context.Background()); err == nil {
		t.Error("Expected reconfiguration of the same module to fail")
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 imports, got %d", calls.Load())
	}
}

// TestLoaderImporterPanic checks a crashing importer is reported instead of killing the process
func TestLoaderImporterPanic(t *testing.T) {
	var calls atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		calls.Add(1)
		panic("wasm compile crashed")
	})

	_, err := loader.EnsureLoaded(context.Background())
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Expected InitializationError, got %v", err)
	}
	if loader.Loaded() {
		t.Error("Loader must not cache a module after a panic")
	}

	// the default policy retries, so the importer runs again
	if _, err := loader.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("Expected the second import to fail too")
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 imports, got %d", calls.Load())
	}

	r := NewRasterizer(loader)
	result := r.RasterizeFirstPage(context.Background(), strings.NewReader("%PDF-1.4"), "Resume.pdf")
	if result.OK() {
		t.Fatal("Expected a failed conversion")
	}
	if !strings.HasPrefix(result.Error, "Failed to convert PDF: ") {
		t.Errorf("Error = %q, want convert failure prefix", result.Error)
	}
	if !strings.Contains(result.Error, "wasm compile crashed") {
		t.Errorf("Error %q should carry the panic value", result.Error)
	}
}

// TestLoaderPanicCachedFailure checks a panic obeys the cache failure policy
func TestLoaderPanicCachedFailure(t *testing.T) {
	var calls atomic.Int32
	module := newFakeModule()
	loader := NewLoader(func(ctx context.Context) (Module, error) {
		if calls.Add(1) == 1 {
			panic("out of memory")
		}
		return module, nil
	}, WithFailurePolicy(CacheFailure))

	_, first := loader.EnsureLoaded(context.Background())
	_, second := loader.EnsureLoaded(context.Background())
	if first == nil || first != second {
		t.Fatalf("Expected the same cached error, got %v and %v", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 import, got %d", calls.Load())
	}
}
