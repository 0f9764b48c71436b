package search

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/corpus"
	"github.com/poiesic/capsearch/embedding"
	"github.com/poiesic/capsearch/similarity"
	"github.com/poiesic/capsearch/text"
	"github.com/stretchr/testify/require"
)

// testTable places hello/hi close together, world orthogonal to hello and
// forget only faintly related to hello.
func testTable(t *testing.T) *embedding.Table {
	t.Helper()
	table, err := embedding.NewTable(
		[]string{"hello", "hi", "world", "forget", "video"},
		[][]float32{
			{1, 0, 0},
			{0.8, 0.6, 0},
			{0, 1, 0},
			{0.3, 0, 0.9539392},
			{0, 0, 1},
		},
	)
	require.NoError(t, err)
	return table
}

func simpleNormalizer(t *testing.T) *text.Normalizer {
	t.Helper()
	n, err := text.New(text.DefaultStopwords())
	require.NoError(t, err)
	return n
}

func buildState(t *testing.T, key string, captions []string, table *embedding.Table, normalizer *text.Normalizer) *core.IndexState {
	t.Helper()
	tokens := make([][]string, len(captions))
	for i, caption := range captions {
		tokens[i] = normalizer.Normalize(caption)
	}
	dict, tfidf := corpus.Build(tokens)
	matrix, err := similarity.Build(context.Background(), table, dict, tfidf)
	require.NoError(t, err)

	docs := make([]core.Document, len(captions))
	for i, caption := range captions {
		docs[i] = core.Document{
			Index:    i,
			Text:     caption,
			Start:    float64(i) * 2,
			Duration: 2,
			Vector:   tfidf.Vectorize(dict, tokens[i]),
		}
	}
	return &core.IndexState{
		Key:        key,
		Tokenizer:  string(normalizer.Mode()),
		Dictionary: dict,
		Matrix:     matrix,
		Documents:  docs,
		BuiltAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

var greetingCaptions = []string{"hello, world", "forget me", "hi there"}
