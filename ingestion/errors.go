package ingestion

import (
	"errors"

	"github.com/poiesic/capsearch/storage"
)

var (
	// ErrRepositoryRequired is returned when an index repository is not provided.
	ErrRepositoryRequired = errors.New("index repository required")

	// ErrTableRequired is returned when an embedding table is not provided.
	ErrTableRequired = errors.New("embedding table required")

	// ErrNormalizerRequired is returned when a normalizer is not provided.
	ErrNormalizerRequired = errors.New("normalizer required")
)

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
