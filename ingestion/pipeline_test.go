package ingestion

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/poiesic/capsearch/ai/mock"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/embedding"
	"github.com/poiesic/capsearch/similarity"
	"github.com/poiesic/capsearch/storage"
	"github.com/poiesic/capsearch/storage/badger"
	"github.com/poiesic/capsearch/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTable embeds a small vocabulary through the mock embedder, the same
// way a service-backed table is built in production.
func testTable(t *testing.T) *embedding.Table {
	t.Helper()
	vectors := map[string][]float32{
		"hello":  {1, 0, 0},
		"hi":     {0.8, 0.6, 0},
		"world":  {0, 1, 0},
		"forget": {0.3, 0, 0.95},
		"video":  {0, 0, 1},
	}
	vocabulary := []string{"hello", "hi", "world", "forget", "video"}
	embedder := mock.NewMockEmbedder().WithVectors(vectors)

	source := embedding.NewServiceSource(embedder, vocabulary, embedding.DefaultServiceConfig(), io.Discard)
	table, err := source.Build(context.Background())
	require.NoError(t, err)
	return table
}

func setupTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.IndexRepository) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	normalizer, err := text.New(text.DefaultStopwords())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger), WithPoolSize(2)}, opts...)
	pipeline, err := NewPipeline(repo, testTable(t), normalizer, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		pipeline.Release()
		repo.Close()
		backend.Close()
	})
	return pipeline, repo
}

var testCaptions = []core.Caption{
	{Text: "hello, world", Start: 0, Duration: 2.5},
	{Text: "forget me", Start: 2.5, Duration: 1},
	{Text: "hi there", Start: 3.5, Duration: 4},
}

func TestNewPipeline_Errors(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	normalizer, err := text.New(text.DefaultStopwords())
	require.NoError(t, err)
	table := testTable(t)

	_, err = NewPipeline(nil, table, normalizer)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil, normalizer)
	assert.ErrorIs(t, err, ErrTableRequired)

	_, err = NewPipeline(repo, table, nil)
	assert.ErrorIs(t, err, ErrNormalizerRequired)

	_, err = NewPipeline(repo, table, normalizer, WithMatrixOptions(similarity.WithExponent(-1)))
	assert.NoError(t, err, "matrix options are only applied at build time")
}

func TestPipeline_Build(t *testing.T) {
	ctx := context.Background()
	pipeline, repo := setupTestPipeline(t)

	report, err := pipeline.Build(ctx, "abc123", testCaptions, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc123", report.Key)
	assert.False(t, report.Reused)
	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 4, report.Terms, "hello world forget hi")
	assert.GreaterOrEqual(t, report.NonZero, report.Terms, "diagonal is always stored")
	require.NotNil(t, report.Info)
	assert.Equal(t, 3, report.Info.Documents)

	state, err := repo.LoadIndex(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "simple", state.Tokenizer)
	require.Len(t, state.Documents, 3)
	for i, doc := range state.Documents {
		assert.Equal(t, i, doc.Index)
		assert.Equal(t, testCaptions[i].Text, doc.Text)
		assert.Equal(t, testCaptions[i].Start, doc.Start)
		assert.Equal(t, testCaptions[i].Duration, doc.Duration)
		assert.False(t, doc.Vector.IsZero())
	}
	assert.Equal(t, []string{"hello", "world", "forget", "hi"}, state.Dictionary.Terms())

	hello, _ := state.Dictionary.Lookup("hello")
	hi, _ := state.Dictionary.Lookup("hi")
	assert.InDelta(t, 0.64, state.Matrix.At(hello, hi), 1e-5)
	assert.InDelta(t, 1.0, state.Matrix.At(hello, hello), 1e-6)
}

func TestPipeline_BuildCaseInsensitiveKey(t *testing.T) {
	ctx := context.Background()
	pipeline, repo := setupTestPipeline(t)

	report, err := pipeline.Build(ctx, "ABC123", testCaptions, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc123", report.Key)

	exists, err := repo.HasIndex(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPipeline_BuildReusesExisting(t *testing.T) {
	ctx := context.Background()
	pipeline, repo := setupTestPipeline(t)

	_, err := pipeline.Build(ctx, "show", testCaptions, nil)
	require.NoError(t, err)

	report, err := pipeline.Build(ctx, "SHOW", testCaptions[:1], nil)
	require.NoError(t, err)
	assert.True(t, report.Reused)
	assert.Equal(t, 3, report.Documents)

	state, err := repo.LoadIndex(ctx, "show")
	require.NoError(t, err)
	assert.Len(t, state.Documents, 3, "reuse leaves the stored index alone")

	report, err = pipeline.Build(ctx, "show", testCaptions[:1], &BuildOptions{Rebuild: true})
	require.NoError(t, err)
	assert.False(t, report.Reused)
	assert.Equal(t, 1, report.Documents)

	state, err = repo.LoadIndex(ctx, "show")
	require.NoError(t, err)
	assert.Len(t, state.Documents, 1)
}

func TestPipeline_BuildMerged(t *testing.T) {
	ctx := context.Background()
	pipeline, repo := setupTestPipeline(t)

	report, err := pipeline.Build(ctx, "merged", testCaptions, &BuildOptions{MergeSeconds: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)

	state, err := repo.LoadIndex(ctx, "merged")
	require.NoError(t, err)
	assert.Equal(t, "hello, world forget me", state.Documents[0].Text)
	assert.Equal(t, 0.0, state.Documents[0].Start)
	assert.Equal(t, 3.5, state.Documents[0].Duration)
	assert.Equal(t, "hi there", state.Documents[1].Text)
}

func TestPipeline_BuildEmptyDocuments(t *testing.T) {
	ctx := context.Background()
	pipeline, repo := setupTestPipeline(t)

	captions := []core.Caption{{Text: "hello world"}, {Text: ""}, {Text: "the of and"}}
	report, err := pipeline.Build(ctx, "sparse", captions, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Documents)

	state, err := repo.LoadIndex(ctx, "sparse")
	require.NoError(t, err)
	require.Len(t, state.Documents, 3)
	assert.True(t, state.Documents[1].Vector.IsZero())
	assert.True(t, state.Documents[2].Vector.IsZero())
}

func TestPipeline_BuildNoCaptions(t *testing.T) {
	pipeline, _ := setupTestPipeline(t)

	report, err := pipeline.Build(context.Background(), "nothing", []core.Caption{}, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Documents)
	assert.Zero(t, report.Terms)
}

func TestPipeline_BuildInvalidInput(t *testing.T) {
	ctx := context.Background()
	pipeline, repo := setupTestPipeline(t)

	tests := []struct {
		name     string
		key      string
		captions []core.Caption
		opts     *BuildOptions
	}{
		{"empty key", "  ", testCaptions, nil},
		{"negative start", "bad", []core.Caption{{Text: "hello", Start: -1}}, nil},
		{"negative merge window", "bad", testCaptions, &BuildOptions{MergeSeconds: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.Build(ctx, tt.key, tt.captions, tt.opts)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}

	indexes, err := repo.ListIndexes(ctx)
	require.NoError(t, err)
	assert.Empty(t, indexes)
}

func TestPipeline_BuildCancelled(t *testing.T) {
	pipeline, repo := setupTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Build(ctx, "cancelled", testCaptions, &BuildOptions{Rebuild: true})
	assert.ErrorIs(t, err, context.Canceled)

	exists, err := repo.HasIndex(context.Background(), "cancelled")
	require.NoError(t, err)
	assert.False(t, exists, "nothing is published for an incomplete build")
}

func TestPipeline_BuildMatrixOptions(t *testing.T) {
	pipeline, _ := setupTestPipeline(t, WithMatrixOptions(similarity.WithExponent(0)))

	_, err := pipeline.Build(context.Background(), "bad", testCaptions, nil)
	assert.ErrorIs(t, err, similarity.ErrInvalidExponent)
}

func TestPipeline_BuildStateDeterministic(t *testing.T) {
	ctx := context.Background()
	pipeline, _ := setupTestPipeline(t)

	first, err := pipeline.BuildState(ctx, "det", testCaptions)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := pipeline.BuildState(ctx, "det", testCaptions)
		require.NoError(t, err)
		assert.Equal(t, first.Dictionary.Terms(), again.Dictionary.Terms())
		assert.Equal(t, first.Matrix, again.Matrix)
		assert.Equal(t, first.Documents, again.Documents)
	}
}
