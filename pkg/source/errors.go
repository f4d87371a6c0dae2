package source

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat marks sources whose format cannot be determined, has no
// registered reader, or names a sheet that does not exist.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrMalformedSource marks sources that were matched to a reader but could not
// be parsed: corrupt archives, undecodable content, duplicate headers.
var ErrMalformedSource = errors.New("malformed source")

// UnsupportedFormatError wraps ErrUnsupportedFormat with location context.
type UnsupportedFormatError struct {
	Location string
	Reason   string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("source %s: %s: %s", e.Location, ErrUnsupportedFormat, e.Reason)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// MalformedSourceError wraps ErrMalformedSource with location context and the
// underlying parser error, when one exists.
type MalformedSourceError struct {
	Location string
	Reason   string
	Err      error
}

func (e *MalformedSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: %s: %s: %v", e.Location, ErrMalformedSource, e.Reason, e.Err)
	}
	return fmt.Sprintf("source %s: %s: %s", e.Location, ErrMalformedSource, e.Reason)
}

func (e *MalformedSourceError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedSource, e.Err}
	}
	return []error{ErrMalformedSource}
}
