// Package fileproc provides the bounded, cancelable worker pool that
// runs the parse+extract and fingerprint stages across a corpus
// snapshot (spec §5). Adapted from the teacher's
// internal/fileproc.MapFilesWithContextAndProgress: a
// sourcegraph/conc pool sized to 2x NumCPU by default, with per-file
// errors accumulated rather than aborting the run.
package fileproc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/astrograph-io/astrograph/pkg/plugin"
)

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for the
// default worker count (mirrors the teacher's constant).
const DefaultWorkerMultiplier = 2

// ProcessingError is one file's failure, carrying the spec §7 error
// kind alongside the path and underlying error.
type ProcessingError struct {
	Path string
	Kind string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors accumulates per-file failures across a run (spec
// §7: "per-file failures are accumulated, never aborted-on").
type ProcessingErrors struct {
	mu     sync.Mutex
	Errors []ProcessingError
}

// Add appends a failure (thread-safe).
func (e *ProcessingErrors) Add(path, kind string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Kind: kind, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any failure was recorded.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Snapshot returns a copy of the accumulated failures.
func (e *ProcessingErrors) Snapshot() []ProcessingError {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ProcessingError, len(e.Errors))
	copy(out, e.Errors)
	return out
}

// ProgressFunc is invoked once per file, success or failure.
type ProgressFunc func()

// MapFilesWithContext runs fn over files with a bounded worker pool,
// honoring ctx cancellation between per-file work items. A file
// already in flight when ctx is canceled is allowed to finish, but
// its result is discarded rather than folded into results — this
// mirrors spec §5's cancellation contract exactly.
func MapFilesWithContext[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for _, path := range files {
		path := path
		p.Go(func(ctx context.Context) error {
			result, err := fn(path)

			select {
			case <-ctx.Done():
				if onProgress != nil {
					onProgress()
				}
				return nil
			default:
			}

			if err != nil {
				errs.Add(path, classifyError(err), err)
				if onProgress != nil {
					onProgress()
				}
				return nil
			}

			if onProgress != nil {
				onProgress()
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// classifyError maps an error to one of spec §7's file-local error
// kinds: parse_failure for grammar-level failures the registry
// reports, io_error for everything else recoverable at file scope.
func classifyError(err error) string {
	if errors.Is(err, plugin.ErrParseFailure) || errors.Is(err, plugin.ErrUnsupportedEncoding) {
		return "parse_failure"
	}
	return "io_error"
}
