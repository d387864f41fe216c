package models

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the failure modes the codec and its callers can
// hit, consolidated from the ad-hoc sentinel errors a first pass at this
// problem tends to accumulate into a single taxonomy.
type ErrorKind int

const (
	// KeyRequired is raised when a passphrase-bearing operation receives
	// an empty passphrase.
	KeyRequired ErrorKind = iota
	// InputMissing is raised when the secret to embed is absent (a nil
	// Secret).
	InputMissing
	// CapacityExceeded is raised when the payload needs more bits than
	// the depth map can carry under the redundancy factor.
	CapacityExceeded
	// FilenameTooLong is raised when a secret filename exceeds 65535
	// bytes.
	FilenameTooLong
	// BadMagic is raised when the extracted outer-frame magic does not
	// read STG1.
	BadMagic
	// AuthFailure is raised when AES-GCM tag verification fails.
	AuthFailure
	// PayloadMalformed is raised when the inner frame fails a boundary
	// check.
	PayloadMalformed
	// DecompressError is raised when the DEFLATE stream is invalid.
	DecompressError
	// ImageDecodeError is raised when the cover is not a recognizable
	// raster.
	ImageDecodeError
)

var kindNames = map[ErrorKind]string{
	KeyRequired:       "KeyRequired",
	InputMissing:      "InputMissing",
	CapacityExceeded:  "CapacityExceeded",
	FilenameTooLong:   "FilenameTooLong",
	BadMagic:          "BadMagic",
	AuthFailure:       "AuthFailure",
	PayloadMalformed:  "PayloadMalformed",
	DecompressError:   "DecompressError",
	ImageDecodeError:  "ImageDecodeError",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is the single typed error the codec surfaces. Kind drives
// programmatic handling (capacity checks, key-sensitivity tests); Msg is
// the human-readable detail.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err carries the given Kind.
func (e *Error) Is(kind ErrorKind) bool {
	return e != nil && e.Kind == kind
}

// NewError constructs a codec Error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError constructs a codec Error of the given kind wrapping a cause.
func WrapError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the ErrorKind from err, if any, and reports whether one
// was found.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
