// Package rt11err defines the error taxonomy shared by the container, block
// and rt11 packages. Every failure in the core maps to exactly one Kind;
// Checksum mismatches are deliberately not part of this taxonomy since the
// spec treats them as a non-fatal, logged warning rather than an error.
package rt11err

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the category of a core failure.
type Kind int

const (
	// ImageFormat means container bytes could not be parsed.
	ImageFormat Kind = iota
	// GeometryMismatch means the image size or IMD track layout does not
	// match any supported device.
	GeometryMismatch
	// NotFound means the requested filename does not exist in the directory.
	NotFound
	// Exists means the destination filename exists and overwrite was not requested.
	Exists
	// NameInvalid means a filename/extension is unrepresentable in radix-50
	// or exceeds the length limits.
	NameInvalid
	// NoSpace means no EMPTY entry is large enough for the requested file.
	NoSpace
	// DirectoryFull means every directory segment slot is in use.
	DirectoryFull
	// Io means a host filesystem read/write failed.
	Io
	// Corruption means an on-disk filesystem invariant was violated.
	Corruption
)

func (k Kind) String() string {
	switch k {
	case ImageFormat:
		return "ImageFormat"
	case GeometryMismatch:
		return "GeometryMismatch"
	case NotFound:
		return "NotFound"
	case Exists:
		return "Exists"
	case NameInvalid:
		return "NameInvalid"
	case NoSpace:
		return "NoSpace"
	case DirectoryFull:
		return "DirectoryFull"
	case Io:
		return "Io"
	case Corruption:
		return "Corruption"
	default:
		return "Unknown"
	}
}

// Error is the structured error value returned by the core. It carries a
// Kind plus whichever of the optional fields apply, and wraps an underlying
// cause where one exists.
type Error struct {
	Kind      Kind
	Message   string
	Offset    int64  // valid for ImageFormat
	Invariant int    // valid for Corruption
	Name      string // valid for NotFound/Exists/NameInvalid
	Cause     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Name != "" {
		msg = fmt.Sprintf("%s (name=%q)", msg, e.Name)
	}
	if e.Offset != 0 {
		msg = fmt.Sprintf("%s (offset=%d)", msg, e.Offset)
	}
	if e.Invariant != 0 {
		msg = fmt.Sprintf("%s (invariant=%d)", msg, e.Invariant)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind, true
	}
	return 0, false
}

// New builds a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a bare Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithOffset sets Offset on e and returns e, for ImageFormat errors.
func (e *Error) WithOffset(off int64) *Error {
	e.Offset = off
	return e
}

// WithName sets Name on e and returns e, for NotFound/Exists/NameInvalid.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithInvariant sets Invariant on e and returns e, for Corruption.
func (e *Error) WithInvariant(n int) *Error {
	e.Invariant = n
	return e
}
