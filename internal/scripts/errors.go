package scripts

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("script not found")
	ErrDuplicate     = errors.New("script already exists")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidID     = errors.New("invalid script id")
	ErrInvalidStatus = errors.New("invalid script status")
)

// MapHTTPStatus maps script domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
