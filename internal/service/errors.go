package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by PosService. Use errors.Is to classify.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)

// RequestError carries a caller-facing message for one of the error kinds.
type RequestError struct {
	Kind    error
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Kind }

func notFound(format string, args ...interface{}) error {
	return &RequestError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...interface{}) error {
	return &RequestError{Kind: ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &RequestError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}
