package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotImplemented  = errors.New("not implemented")
	ErrInvalidUserID   = errors.New("invalid User-ID header")
	ErrInvalidBusiness = errors.New("invalid business id")
)

// opError ties an error to the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.kind != nil && e.err != nil:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	case e.kind != nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	default:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
}

func (e *opError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// NewKind reports kind for op.
func NewKind(op string, kind error) error { return &opError{op: op, kind: kind} }

// Wrap attaches op to err.
func Wrap(op string, err error) error { return &opError{op: op, err: err} }

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error { return &opError{op: op, kind: kind, err: err} }
