package breakdowns

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("breakdown not found")
	ErrDuplicate      = errors.New("breakdown already exists")
	ErrInvalidID      = errors.New("invalid breakdown id")
	ErrInvalidReview  = errors.New("reviewed_by is required")
	ErrAlreadyClosed  = errors.New("script is not awaiting review")
	ErrScriptNotFound = errors.New("script not found")
)

// MapHTTPStatus maps breakdown domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrScriptNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrAlreadyClosed):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidReview):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
