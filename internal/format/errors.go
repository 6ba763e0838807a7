// Package format holds the pieces of the level file format shared by every
// decoder: error kinds, game variants and the per-variant layouts.
package format

import (
	"errors"
	"fmt"
)

// Error kinds. Decoders wrap these with fmt.Errorf so callers can use errors.Is.
var (
	ErrNotFound           = errors.New("file not found")
	ErrIoFailure          = errors.New("i/o failure")
	ErrUnsupportedVariant = errors.New("unsupported game variant")
	ErrCorruptAsset       = errors.New("corrupt asset")
)

// FileKind names one of the three files of a level.
type FileKind string

const (
	FileEngine   FileKind = "engine"
	FileVram     FileKind = "vram"
	FileGameplay FileKind = "gameplay"
)

// DecodeError reports which file and which stage failed.
type DecodeError struct {
	File  FileKind
	Path  string
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s file %q: %s: %v", e.File, e.Path, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Corruptf returns an error wrapping ErrCorruptAsset.
func Corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptAsset, fmt.Sprintf(format, args...))
}

// Wrap tags err with the section it was raised in. Errors that are not
// already a kind (for example out-of-bounds reads) become ErrCorruptAsset.
func Wrap(section fmt.Stringer, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCorruptAsset) || errors.Is(err, ErrIoFailure) ||
		errors.Is(err, ErrUnsupportedVariant) || errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", section, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCorruptAsset, section, err)
}
