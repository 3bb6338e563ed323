package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// FailurePolicy decides what happens to later callers after an initialization failure
type FailurePolicy int

const (
	// RetryOnFailure forgets a failed import so the next caller starts a new one
	RetryOnFailure FailurePolicy = iota
	// CacheFailure replays the first failure to every later caller
	CacheFailure
)

const loadKey = "module"

// Loader initializes a rendering Module lazily and at most once at a time.
// Concurrent callers that arrive while an import is in flight share its outcome.
type Loader struct {
	importer     Importer
	workerSource string
	policy       FailurePolicy

	group   singleflight.Group
	imports atomic.Int64

	mu     sync.Mutex
	module Module
	err    error
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithWorkerSource overrides the worker resource set on the module after import
func WithWorkerSource(src string) LoaderOption {
	return func(l *Loader) { l.workerSource = src }
}

// WithFailurePolicy selects whether failed imports are retried or cached
func WithFailurePolicy(policy FailurePolicy) LoaderOption {
	return func(l *Loader) { l.policy = policy }
}

// NewLoader creates a loader around importer. Nothing is loaded until EnsureLoaded is called.
func NewLoader(importer Importer, opts ...LoaderOption) *Loader {
	l := &Loader{
		importer:     importer,
		workerSource: DefaultWorkerSource,
		policy:       RetryOnFailure,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnsureLoaded returns the initialized module, importing it on first use.
// Cancelling ctx abandons the wait but not a shared import already under way.
func (l *Loader) EnsureLoaded(ctx context.Context) (Module, error) {
	if module, done, err := l.cached(); done {
		return module, err
	}

	importCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(loadKey, func() (any, error) {
		return l.load(importCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Module), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded reports whether a module is cached
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.module != nil
}

// Imports returns how many times the importer has been run
func (l *Loader) Imports() int64 {
	return l.imports.Load()
}

// Close releases the cached module if the backend holds resources
func (l *Loader) Close() error {
	l.mu.Lock()
	module := l.module
	l.module = nil
	l.err = nil
	l.mu.Unlock()

	if closer, ok := module.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (l *Loader) cached() (Module, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.module != nil {
		return l.module, true, nil
	}
	if l.err != nil {
		return nil, true, l.err
	}
	return nil, false, nil
}

// load runs inside the single-flight group, so only one call executes at a time.
// Panics from the importer or the module come back as an InitializationError;
// singleflight re-raises anything else on a goroutine nobody can recover.
func (l *Loader) load(ctx context.Context) (module Module, err error) {
	// a caller may have joined after the previous flight finished
	if cachedModule, done, cachedErr := l.cached(); done {
		return cachedModule, cachedErr
	}

	defer func() {
		if p := recover(); p != nil {
			module, err = nil, l.fail(fmt.Errorf("panic: %v", p))
		}
	}()

	l.imports.Add(1)
	module, err = l.importer(ctx)
	if err == nil && module == nil {
		err = errors.New("importer returned no module")
	}
	if err == nil {
		err = module.SetWorkerSource(l.workerSource)
		if err != nil {
			if closer, ok := module.(interface{ Close() error }); ok {
				closer.Close()
			}
		}
	}
	if err != nil {
		return nil, l.fail(err)
	}

	l.mu.Lock()
	l.module = module
	l.mu.Unlock()
	return module, nil
}

// fail wraps err and applies the failure policy
func (l *Loader) fail(err error) error {
	initErr := &InitializationError{Err: err}
	if l.policy == CacheFailure {
		l.mu.Lock()
		l.err = initErr
		l.mu.Unlock()
	}
	return initErr
}
