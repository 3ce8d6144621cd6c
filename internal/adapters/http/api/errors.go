package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrUpstream         = errors.New("upstream failure")
	ErrInsufficientData = errors.New("insufficient data")
	ErrBadRequest       = errors.New("bad request")
	ErrInternal         = errors.New("internal error")
)

// kindError tags an error with the operation that produced it and a kind
// sentinel. Both the kind and the cause match errors.Is.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// WrapKind wraps err with an operation name and kind.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}
