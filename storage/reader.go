// Package storage provides the low-level byte-buffer view shared by the
// container, block and rt11 packages. Every layer above it decodes and
// encodes fixed-layout binary structures against a single in-memory image
// buffer rather than streaming from a file, since RT-11 and IMD images are
// always small enough to hold entirely in memory (spec §5).
package storage

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Image is a fixed-size, mutable byte buffer with a current read/write
// cursor. It implements io.Reader, io.ReaderAt, io.WriterAt and io.Seeker so
// that callers can either stream through it with encoding/binary or address
// it directly by offset.
type Image struct {
	buf    []byte
	cursor int64
}

// New wraps an existing byte slice. The slice is used directly, not copied:
// writes through the Image mutate buf in place.
func New(buf []byte) *Image {
	return &Image{buf: buf}
}

// NewZeroed allocates a new zero-filled Image of the given size.
func NewZeroed(size int) *Image {
	return &Image{buf: make([]byte, size)}
}

// Bytes returns the underlying buffer. Mutating the returned slice mutates
// the Image.
func (img *Image) Bytes() []byte {
	return img.buf
}

// Len returns the total size of the buffer in bytes.
func (img *Image) Len() int {
	return len(img.buf)
}

func (img *Image) Read(p []byte) (int, error) {
	if img.cursor >= int64(len(img.buf)) {
		return 0, io.EOF
	}
	n := copy(p, img.buf[img.cursor:])
	img.cursor += int64(n)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(img.buf)) {
		return 0, errors.Errorf("storage: read offset %d out of range (len %d)", off, len(img.buf))
	}
	n := copy(p, img.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (img *Image) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(img.buf)) {
		return 0, errors.Errorf("storage: write offset %d length %d out of range (len %d)", off, len(p), len(img.buf))
	}
	n := copy(img.buf[off:], p)
	return n, nil
}

func (img *Image) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = img.cursor + offset
	case io.SeekEnd:
		next = int64(len(img.buf)) + offset
	default:
		return 0, errors.Errorf("storage: invalid whence %d", whence)
	}
	if next < 0 || next > int64(len(img.buf)) {
		return 0, errors.Errorf("storage: seek to %d out of range (len %d)", next, len(img.buf))
	}
	img.cursor = next
	return next, nil
}

// PeekShort returns the little-endian uint16 at the current cursor position
// without advancing it. Mirrors the lookahead helper the teacher's tape
// parsers use to validate a block header length before committing to a
// binary.Read of the whole struct.
func (img *Image) PeekShort() (uint16, error) {
	if img.cursor+2 > int64(len(img.buf)) {
		return 0, io.EOF
	}
	return binary.LittleEndian.Uint16(img.buf[img.cursor : img.cursor+2]), nil
}

// Slice returns a direct (non-copying) view of length n starting at off.
// Mutating the returned slice mutates the Image.
func (img *Image) Slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(img.buf) {
		return nil, errors.Errorf("storage: slice [%d:%d] out of range (len %d)", off, off+n, len(img.buf))
	}
	return img.buf[off : off+n], nil
}
