package astrograph

import (
	"errors"
	"fmt"

	"github.com/astrograph-io/astrograph/pkg/index"
	"github.com/astrograph-io/astrograph/pkg/plugin"
)

// Sentinel error kinds (spec §7). ErrParseFailure and
// ErrUnsupportedEncoding are re-exported from pkg/plugin so callers
// never need to import that package just to compare errors.
var (
	ErrParseFailure        = plugin.ErrParseFailure
	ErrUnsupportedEncoding = plugin.ErrUnsupportedEncoding
	ErrUnsupportedLanguage = errors.New("astrograph: unsupported language")
	ErrIOError             = errors.New("astrograph: io error")
	ErrIndexCorruption     = index.ErrIndexCorruption
	ErrConcurrentRunRefused = index.ErrConcurrentRunRefused
)

// FileError wraps a per-file failure with the offending path and
// error kind, errors.As-compatible, grounded on the teacher's
// fileproc.ProcessingError.
type FileError struct {
	Path string
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Kind
}
