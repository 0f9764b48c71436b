package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "missing directories are created")
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenBackend(file, false)
	assert.ErrorContains(t, err, "is not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction commits", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
			return tx.Set([]byte("k"), []byte("v"))
		})
		require.NoError(t, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("k"))
			return err
		}, false)
		assert.NoError(t, err)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
			if err := tx.Set([]byte("rollback"), []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("rollback"))
			return err
		}, false)
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := backend.WithTransaction(canceled, func(ctx context.Context, tx *badger.Txn) error {
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTxFailed(t *testing.T) {
	assert.NoError(t, txFailed(nil))

	err := txFailed(errors.New("conflict"))
	assert.ErrorIs(t, err, storage.ErrTransactionFailed)
	assert.ErrorIs(t, err, core.ErrTransientStore)

	err = txFailed(badger.ErrConflict)
	assert.ErrorIs(t, err, core.ErrTransientStore)

	err = txFailed(badger.ErrDBClosed)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = txFailed(fmt.Errorf("set: %w", badger.ErrTxnTooBig))
	assert.ErrorIs(t, err, storage.ErrIndexTooLarge)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.NotErrorIs(t, err, core.ErrTransientStore, "an oversized blob is not retryable")

	err = txFailed(badger.ErrEmptyKey)
	assert.ErrorIs(t, err, storage.ErrTransactionFailed)
	assert.NotErrorIs(t, err, core.ErrTransientStore)
}
