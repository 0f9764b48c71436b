package badger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, key string) *core.IndexState {
	t.Helper()
	dict, err := core.NewDictionary([]string{"hello", "world", "forget"}, []int32{1, 1, 1}, 2)
	require.NoError(t, err)
	matrix, err := core.NewSimilarityMatrix([][]core.Weight{
		{{ID: 0, Value: 1}},
		{{ID: 1, Value: 1}, {ID: 2, Value: 0.1}},
		{{ID: 1, Value: 0.1}, {ID: 2, Value: 1}},
	})
	require.NoError(t, err)
	return &core.IndexState{
		Key:        key,
		Tokenizer:  "simple",
		Dictionary: dict,
		Matrix:     matrix,
		BuiltAt:    time.Now().UTC().Truncate(time.Microsecond),
		Documents: []core.Document{
			{Index: 0, Text: "hello, world", Vector: core.SparseVector{{ID: 0, Value: 0.6}, {ID: 1, Value: 0.8}}},
			{Index: 1, Text: "forget me", Start: 3, Duration: 1.25, Vector: core.SparseVector{{ID: 2, Value: 1}}},
		},
	}
}

func newRepo(t *testing.T) storage.IndexRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestIndexRepository_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	state := newTestState(t, "abc123")

	has, err := repo.HasIndex(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, has)

	info, err := repo.SaveIndex(ctx, "abc123", state)
	require.NoError(t, err)
	assert.Equal(t, "abc123", info.Key)
	assert.Equal(t, 2, info.Documents)
	assert.Equal(t, 3, info.Terms)

	has, err = repo.HasIndex(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, has)

	loaded, err := repo.LoadIndex(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, state.Documents, loaded.Documents)
	assert.Equal(t, state.Dictionary.Terms(), loaded.Dictionary.Terms())
	assert.True(t, state.BuiltAt.Equal(loaded.BuiltAt))
	for i := 0; i < state.Matrix.Len(); i++ {
		assert.Equal(t, state.Matrix.Row(core.TermID(i)), loaded.Matrix.Row(core.TermID(i)))
	}
}

func TestIndexRepository_CaseInsensitiveKeys(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SaveIndex(ctx, "ABC123", newTestState(t, "ABC123"))
	require.NoError(t, err)

	has, err := repo.HasIndex(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, has)

	loaded, err := repo.LoadIndex(ctx, "  Abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "abc123", loaded.Key)
}

func TestIndexRepository_Overwrite(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SaveIndex(ctx, "vid", newTestState(t, "vid"))
	require.NoError(t, err)

	replacement := newTestState(t, "vid")
	replacement.Documents = replacement.Documents[:1]
	_, err = repo.SaveIndex(ctx, "vid", replacement)
	require.NoError(t, err)

	loaded, err := repo.LoadIndex(ctx, "vid")
	require.NoError(t, err)
	assert.Len(t, loaded.Documents, 1)

	infos, err := repo.ListIndexes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Documents)
}

func TestIndexRepository_NotFound(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.LoadIndex(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetIndexInfo(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.DeleteIndex(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexRepository_InvalidInput(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.LoadIndex(ctx, "   ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = repo.SaveIndex(ctx, "", newTestState(t, ""))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	broken := newTestState(t, "vid")
	broken.Documents[1].Index = 7
	_, err = repo.SaveIndex(ctx, "vid", broken)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestIndexRepository_DeleteAndList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, key := range []string{"charlie", "alpha", "bravo"} {
		_, err := repo.SaveIndex(ctx, key, newTestState(t, key))
		require.NoError(t, err)
	}

	infos, err := repo.ListIndexes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha", infos[0].Key)
	assert.Equal(t, "charlie", infos[2].Key)

	require.NoError(t, repo.DeleteIndex(ctx, "BRAVO"))

	has, err := repo.HasIndex(ctx, "bravo")
	require.NoError(t, err)
	assert.False(t, has)

	infos, err = repo.ListIndexes(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestIndexRepository_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewIndexRepository(backend)
	require.NoError(t, err)
	_, err = repo.SaveIndex(ctx, "vid", newTestState(t, "vid"))
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewIndexRepository(backend)
	require.NoError(t, err)

	loaded, err := repo.LoadIndex(ctx, "vid")
	require.NoError(t, err)
	assert.Len(t, loaded.Documents, 2)
}

func TestNewIndexRepository_NilBackend(t *testing.T) {
	_, err := NewIndexRepository(nil)
	assert.Error(t, err)
}

func TestIndexRepository_SaveTooLarge(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	state := newTestState(t, "huge")
	// Larger than one badger transaction batch at the default memtable size.
	state.Documents[1].Text = strings.Repeat("x", 12<<20)

	_, err := repo.SaveIndex(ctx, "huge", state)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrIndexTooLarge)
	assert.NotErrorIs(t, err, core.ErrTransientStore)

	has, err := repo.HasIndex(ctx, "huge")
	require.NoError(t, err)
	assert.False(t, has, "nothing is written when the blob is rejected")
}
