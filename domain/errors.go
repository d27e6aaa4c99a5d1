package domain

import (
	"fmt"
	"net/http"
)

// StatusCodeError is an error that knows the HTTP status it maps to.
type StatusCodeError interface {
	error
	StatusCode() int
}

// NotFoundError is returned when an operation references an id absent from the store.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ValidationError is returned when a request body is malformed or misses required fields.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// UnsupportedPatchOperationError is returned when a patch entry names an op
// or a path the user resource does not support.
type UnsupportedPatchOperationError struct {
	Op     string
	Path   string
	Reason string
}

func (e *UnsupportedPatchOperationError) Error() string {
	return fmt.Sprintf("unsupported patch operation %q on %q: %s", e.Op, e.Path, e.Reason)
}

func (e *UnsupportedPatchOperationError) StatusCode() int {
	return http.StatusBadRequest
}
