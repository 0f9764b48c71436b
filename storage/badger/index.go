// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a repository over backend.
//
// Returns storage.IndexRepository to keep callers independent of BadgerDB.
func NewIndexRepository(backend *Backend) (storage.IndexRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &IndexRepository{backend: backend}, nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *IndexRepository) Close() error {
	return nil
}

// HasIndex reports whether an index is stored for key.
func (r *IndexRepository) HasIndex(ctx context.Context, key string) (bool, error) {
	_, err := r.GetIndexInfo(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LoadIndex returns the index stored for key.
func (r *IndexRepository) LoadIndex(ctx context.Context, key string) (*core.IndexState, error) {
	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state *core.IndexState
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexKey(normalized))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return txFailed(err)
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalIndexState(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SaveIndex stores state under key, replacing the blob and manifest together.
func (r *IndexRepository) SaveIndex(ctx context.Context, key string, state *core.IndexState) (*core.IndexInfo, error) {
	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	stored := *state
	stored.Key = normalized
	blob := storage.MarshalIndexState(&stored)
	info := storage.NewIndexInfo(&stored, blob)

	err = r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		if err := tx.Set(makeIndexKey(normalized), blob); err != nil {
			return txFailed(err)
		}
		if err := tx.Set(makeManifestKey(normalized), storage.MarshalIndexInfo(info)); err != nil {
			return txFailed(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("index saved", "key", normalized, "bytes", len(blob), "documents", info.Documents)
	return info, nil
}

// DeleteIndex removes the index for key.
func (r *IndexRepository) DeleteIndex(ctx context.Context, key string) error {
	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	return r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		if _, err := tx.Get(makeManifestKey(normalized)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return txFailed(err)
		}
		if err := tx.Delete(makeIndexKey(normalized)); err != nil {
			return txFailed(err)
		}
		if err := tx.Delete(makeManifestKey(normalized)); err != nil {
			return txFailed(err)
		}
		return nil
	})
}

// GetIndexInfo returns the manifest record for key.
func (r *IndexRepository) GetIndexInfo(ctx context.Context, key string) (*core.IndexInfo, error) {
	normalized, err := core.NormalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var info *core.IndexInfo
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeManifestKey(normalized))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return txFailed(err)
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			info, unmarshalErr = storage.UnmarshalIndexInfo(val)
			return unmarshalErr
		})
	}, false)
	return info, err
}

// ListIndexes returns manifest records for every stored index, ordered by key.
func (r *IndexRepository) ListIndexes(ctx context.Context) ([]*core.IndexInfo, error) {
	var infos []*core.IndexInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(manifestPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				info, err := storage.UnmarshalIndexInfo(val)
				if err != nil {
					return err
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return infos, nil
}
