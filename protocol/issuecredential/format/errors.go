package format

import (
	"errors"
	"fmt"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrUnsupported        = errors.New("unsupported credential format")
	ErrMalformed          = errors.New("malformed attachment")
	ErrMismatch           = errors.New("credential does not match the request")
	ErrTooManyFormats     = errors.New("too many formats for the protocol version")
	ErrNoInput            = errors.New("format input missing")
)

// Error is a format level failure. While processing an inbound message
// it's turned into a problem report to the other party.
type Error struct {
	Op     string
	Format string
	Err    error
}

func (e *Error) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns Error wrapping err. A nil err gives nil.
func Errorf(op, format string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Op: op, Format: format, Err: err}
}

// Malformed wraps a decode failure.
func Malformed(op, format string, err error) error {
	return &Error{Op: op, Format: format, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
}

// NotFound tells that the message has no attachment for the format.
func NotFound(op, format string) error {
	return &Error{Op: op, Format: format, Err: ErrAttachmentNotFound}
}

// IsFormatError tells if err is or wraps Error.
func IsFormatError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
