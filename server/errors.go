package server

import (
	"errors"
	"net/http"

	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/storage"
)

var (
	// ErrServiceRequired is returned when no service is provided.
	ErrServiceRequired = errors.New("service required")

	// ErrMissingVideoID is returned when a request names no corpus.
	ErrMissingVideoID = errors.New("video_id is required")
)

// statusFor maps an error to the HTTP status reported to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrIndexTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrResourceUnavailable), errors.Is(err, core.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
