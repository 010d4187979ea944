package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest signals search parameters that cannot form a query.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrQuerySyntax signals a free-text query the backend rejected (user-correctable).
	ErrQuerySyntax = errors.New("query syntax error")
	// ErrServiceUnavailable signals any other backend failure.
	ErrServiceUnavailable = errors.New("search service unavailable")
	// ErrSuperseded signals a response that arrived after a newer search was issued.
	ErrSuperseded = errors.New("search superseded")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// Failure is the error kind surfaced to the UI alongside an empty result set.
type Failure string

// Failure kinds.
const (
	FailureNone        Failure = ""
	FailureQuerySyntax Failure = "query_syntax"
	FailureUnavailable Failure = "unavailable"
)

// StatusError carries the backend status code of a failed request.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Err.Error())
}

func (e *StatusError) Unwrap() error { return e.Err }

// ClassifyStatus maps a transport failure status to its error kind.
// 400 means the query could not be parsed; everything else means the backend is down.
func ClassifyStatus(status int) error {
	if status == http.StatusBadRequest {
		return ErrQuerySyntax
	}
	return ErrServiceUnavailable
}

// NewStatusError wraps cause with the classification of status.
func NewStatusError(status int, cause error) error {
	kind := ClassifyStatus(status)
	if cause == nil {
		return &StatusError{Status: status, Err: kind}
	}
	return &StatusError{Status: status, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// FailureOf reports which failure kind err belongs to.
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrQuerySyntax):
		return FailureQuerySyntax
	default:
		return FailureUnavailable
	}
}
