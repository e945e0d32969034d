// Package fileproc schedules independent per-item work on a bounded pool.
// It backs both pipeline phases: one fingerprint job per file, one scoring
// job per pair. Results land at their input index, so output order is
// deterministic regardless of which worker finishes first.
package fileproc

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError records one failed item.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects failures from a parallel run.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error. Safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d items failed (first: %v)", len(e.Errors), e.Errors[0])
}

// ProgressFunc is called after each item completes.
type ProgressFunc func()

// resolveWorkers clamps the pool size. Zero or negative means NumCPU.
func resolveWorkers(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

// MapIndexed runs fn once per item on at most workers goroutines, storing
// each result at its input index. fn must handle its own failures; every
// index gets exactly one result.
func MapIndexed[S any, T any](items []S, workers int, fn func(int, S) T, onProgress ProgressFunc) []T {
	if len(items) == 0 {
		return nil
	}

	results := make([]T, len(items))

	p := pool.New().WithMaxGoroutines(resolveWorkers(workers))
	for i, item := range items {
		p.Go(func() {
			results[i] = fn(i, item)
			if onProgress != nil {
				onProgress()
			}
		})
	}
	p.Wait()

	return results
}

// ForEachErrFunc names an item for error reporting.
type ForEachErrFunc[S any] func(S) string

// ForEachCollectErrors runs fn once per item in parallel and collects
// failures instead of aborting; a failed item never stops its siblings.
func ForEachCollectErrors[S any](items []S, workers int, name ForEachErrFunc[S], fn func(S) error, onProgress ProgressFunc) *ProcessingErrors {
	if len(items) == 0 {
		return nil
	}

	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(resolveWorkers(workers))
	for _, item := range items {
		p.Go(func() {
			if err := fn(item); err != nil {
				errs.Add(name(item), err)
			}
			if onProgress != nil {
				onProgress()
			}
		})
	}
	p.Wait()

	if !errs.HasErrors() {
		return nil
	}
	return errs
}
