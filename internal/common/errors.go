// Package common defines the sentinel errors shared by the claim services,
// repositories and blob stores. Callers should use errors.Is to match these
// values; producers wrap them with additional context via fmt.Errorf("%w").
package common

import (
	"errors"
	"net/http"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Input errors, reported before any mutation.
	ErrorValidation        = errors.New("validation error")
	ErrDuplicateSubmission = errors.New("cannot submit more than one claim per day")

	// Attachment errors.
	ErrPayloadTooLarge = errors.New("attachment exceeds size limit")
	ErrStorage         = errors.New("blob storage error")

	// Service-level catch-all for unexpected persistence failures.
	ErrorInternal = errors.New("internal error")
)

// HTTPStatus maps an error produced by the services to the status code an HTTP
// collaborator should answer with. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrorValidation), errors.Is(err, ErrDuplicateSubmission):
		return http.StatusBadRequest
	case errors.Is(err, ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
