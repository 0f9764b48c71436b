package storage

import (
	"context"

	"github.com/poiesic/capsearch/core"
)

// IndexRepository persists built indexes, one per corpus key.
// Keys are compared case-insensitively (see core.NormalizeKey).
// Implementations must be thread-safe and support concurrent access.
type IndexRepository interface {
	// HasIndex reports whether an index is stored for key.
	HasIndex(ctx context.Context, key string) (bool, error)

	// LoadIndex returns the index stored for key.
	// Returns ErrNotFound if there is none.
	LoadIndex(ctx context.Context, key string) (*core.IndexState, error)

	// SaveIndex stores state under key, replacing any previous index in a
	// single transaction. Returns the manifest record written.
	SaveIndex(ctx context.Context, key string, state *core.IndexState) (*core.IndexInfo, error)

	// DeleteIndex removes the index for key.
	// Returns ErrNotFound if there is none.
	DeleteIndex(ctx context.Context, key string) error

	// GetIndexInfo returns the manifest record for key without loading the index.
	// Returns ErrNotFound if there is none.
	GetIndexInfo(ctx context.Context, key string) (*core.IndexInfo, error)

	// ListIndexes returns manifest records for every stored index, ordered by key.
	ListIndexes(ctx context.Context) ([]*core.IndexInfo, error)

	// Close releases resources held by the repository. It does not close
	// the underlying backend.
	Close() error
}
