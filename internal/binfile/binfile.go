// Package binfile gives bounds-checked, offset-addressed reads over a level file.
package binfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/rcforge/levelcore/internal/format"
)

// ErrOutOfBounds is returned for any read that would leave the file.
var ErrOutOfBounds = errors.New("read out of bounds")

// ErrMalformed is returned when a fixed record cannot be decoded.
var ErrMalformed = errors.New("malformed record")

// Order is the byte order of every level file.
var Order = binary.BigEndian

// Source is a read-only view of one file. Reads carry their own offset,
// so a Source can be shared between goroutines.
type Source struct {
	path string
	r    io.ReaderAt
	size int64
	mm   *mmap.ReaderAt
}

// Open maps path read-only.
func Open(path string) (*Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", format.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", format.ErrIoFailure, path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", format.ErrIoFailure, path)
	}
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %v", format.ErrIoFailure, path, err)
	}
	return &Source{path: path, r: mm, size: int64(mm.Len()), mm: mm}, nil
}

// FromBytes wraps an in-memory buffer.
func FromBytes(name string, data []byte) *Source {
	return &Source{path: name, r: bytes.NewReader(data), size: int64(len(data))}
}

// Path returns the path or name the source was created with.
func (s *Source) Path() string { return s.path }

// Size returns the file length in bytes.
func (s *Source) Size() int64 { return s.size }

// Close releases the mapping. Closing a FromBytes source is a no-op.
func (s *Source) Close() error {
	if s.mm == nil {
		return nil
	}
	err := s.mm.Close()
	s.mm = nil
	return err
}

// InBounds reports whether [off, off+n) lies inside the file.
func (s *Source) InBounds(off, n int64) bool {
	return off >= 0 && n >= 0 && off <= s.size && n <= s.size-off
}

func (s *Source) check(off, n int64) error {
	if !s.InBounds(off, n) {
		return fmt.Errorf("%w: [0x%X, +0x%X) in %d-byte file %s", ErrOutOfBounds, off, n, s.size, s.path)
	}
	return nil
}

// ReadAt returns a fresh copy of n bytes at off.
func (s *Source) ReadAt(off, n int64) ([]byte, error) {
	if err := s.check(off, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := s.r.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read %s at 0x%X: %v", format.ErrIoFailure, s.path, off, err)
	}
	return buf, nil
}

// Uint8 reads one byte at off.
func (s *Source) Uint8(off int64) (uint8, error) {
	b, err := s.ReadAt(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a big-endian uint16 at off.
func (s *Source) Uint16(off int64) (uint16, error) {
	b, err := s.ReadAt(off, 2)
	if err != nil {
		return 0, err
	}
	return Order.Uint16(b), nil
}

// Uint32 reads a big-endian uint32 at off.
func (s *Source) Uint32(off int64) (uint32, error) {
	b, err := s.ReadAt(off, 4)
	if err != nil {
		return 0, err
	}
	return Order.Uint32(b), nil
}

// Int32 reads a big-endian int32 at off.
func (s *Source) Int32(off int64) (int32, error) {
	v, err := s.Uint32(off)
	return int32(v), err
}

// Float32 reads a big-endian IEEE-754 float at off.
func (s *Source) Float32(off int64) (float32, error) {
	v, err := s.Uint32(off)
	return math.Float32frombits(v), err
}

// ReadRecord decodes the fixed-width struct T at off. T must only contain
// fixed-size fields (see encoding/binary).
func ReadRecord[T any](s *Source, off int64) (T, error) {
	var rec T
	n := binary.Size(&rec)
	if n < 0 {
		return rec, fmt.Errorf("%w: %T has no fixed size", ErrMalformed, rec)
	}
	b, err := s.ReadAt(off, int64(n))
	if err != nil {
		return rec, err
	}
	if err := binary.Read(bytes.NewReader(b), Order, &rec); err != nil {
		return rec, fmt.Errorf("%w: %T at 0x%X: %v", ErrMalformed, rec, off, err)
	}
	return rec, nil
}

// ReadRecords decodes count consecutive T records starting at off.
func ReadRecords[T any](s *Source, off int64, count int) ([]T, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative record count %d", ErrMalformed, count)
	}
	var zero T
	n := binary.Size(&zero)
	if n < 0 {
		return nil, fmt.Errorf("%w: %T has no fixed size", ErrMalformed, zero)
	}
	b, err := s.ReadAt(off, int64(n)*int64(count))
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	if err := binary.Read(bytes.NewReader(b), Order, out); err != nil {
		return nil, fmt.Errorf("%w: %d x %T at 0x%X: %v", ErrMalformed, count, zero, off, err)
	}
	return out, nil
}

// Descriptor is one {offset, count} header entry.
type Descriptor struct {
	Offset uint32
	Count  int32
}

// Present reports whether the section exists in the file.
func (d Descriptor) Present() bool { return d.Offset != 0 }

// ReadDescriptor reads the descriptor stored at off.
func (s *Source) ReadDescriptor(off int64) (Descriptor, error) {
	return ReadRecord[Descriptor](s, off)
}
