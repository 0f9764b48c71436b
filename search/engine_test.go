package search

import (
	"math"
	"testing"

	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGreetingEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	normalizer := simpleNormalizer(t)
	state := buildState(t, "greetings", greetingCaptions, testTable(t), normalizer)
	engine, err := NewEngine(state, normalizer, opts...)
	require.NoError(t, err)
	return engine
}

func TestEngine_HelloWorldScenario(t *testing.T) {
	normalizer := simpleNormalizer(t)
	state := buildState(t, "abc", []string{"hello, world", "forget me"}, testTable(t), normalizer)
	engine, err := NewEngine(state, normalizer)
	require.NoError(t, err)

	scores := engine.ScoreAll("hello")
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1], "exact overlap ranks first")
	assert.InDelta(t, 0.7071, scores[0], 1e-3)

	results, err := engine.ScoreWith("hello", Params{Threshold: 0, Limit: 8})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 0, results[0].DocumentIndex)
	assert.Equal(t, "hello, world", results[0].Text)
}

func TestEngine_SoftMatching(t *testing.T) {
	engine := newGreetingEngine(t)

	scores := engine.ScoreAll("hello")
	assert.InDelta(t, 0.7071, scores[0], 1e-3)
	assert.InDelta(t, 0.09, scores[1], 1e-3, "forget is faintly related")
	assert.InDelta(t, 0.64, scores[2], 1e-3, "hi shares no word but is close in embedding space")

	results, err := engine.Score("hello")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].DocumentIndex)
	assert.Equal(t, 2, results[1].DocumentIndex)
	assert.Equal(t, 4.0, results[1].Start)
	assert.Equal(t, 2.0, results[1].Duration)
}

func TestEngine_Deterministic(t *testing.T) {
	engine := newGreetingEngine(t)
	first, err := engine.Score("hello world")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.Score("hello world")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	rebuilt := newGreetingEngine(t)
	again, err := rebuilt.Score("hello world")
	require.NoError(t, err)
	assert.Equal(t, first, again, "rebuilding the index gives the same ranking")
}

func TestEngine_RankingInvariant(t *testing.T) {
	engine := newGreetingEngine(t)
	results, err := engine.ScoreWith("hello hi forget", Params{Threshold: 0})
	require.NoError(t, err)

	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		assert.GreaterOrEqual(t, prev.Score, cur.Score)
		if prev.Score == cur.Score {
			assert.Less(t, prev.DocumentIndex, cur.DocumentIndex)
		}
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestEngine_TiesBreakByIndex(t *testing.T) {
	normalizer := simpleNormalizer(t)
	state := buildState(t, "ties", []string{"hello", "forget", "hello"}, testTable(t), normalizer)
	engine, err := NewEngine(state, normalizer)
	require.NoError(t, err)

	results, err := engine.Score("hello")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, 0, results[0].DocumentIndex)
	assert.Equal(t, 2, results[1].DocumentIndex)
}

func TestEngine_ThresholdMonotonic(t *testing.T) {
	engine := newGreetingEngine(t)

	var previous []core.Result
	for _, threshold := range []float64{0, 0.05, 0.1, 0.5, 0.7, 0.9} {
		results, err := engine.ScoreWith("hello", Params{Threshold: threshold})
		require.NoError(t, err)
		for _, r := range results {
			assert.Greater(t, r.Score, threshold)
		}
		if previous != nil {
			assert.LessOrEqual(t, len(results), len(previous))
			assert.Equal(t, previous[:len(results)], results, "higher thresholds keep a prefix")
		}
		previous = results
	}
}

func TestEngine_Truncation(t *testing.T) {
	engine := newGreetingEngine(t)

	all, err := engine.ScoreWith("hello", Params{Threshold: 0})
	require.NoError(t, err)
	require.Len(t, all, 3)

	for n := 1; n <= 3; n++ {
		results, err := engine.ScoreWith("hello", Params{Threshold: 0, Limit: n})
		require.NoError(t, err)
		assert.Equal(t, all[:n], results)
	}
}

func TestEngine_EmptyResults(t *testing.T) {
	engine := newGreetingEngine(t)

	tests := []struct {
		name  string
		query string
	}{
		{"empty query", ""},
		{"only stopwords", "the and of"},
		{"no overlap with dictionary", "planet"},
		{"punctuation", "?!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Score(tt.query)
			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)

			for _, s := range engine.ScoreAll(tt.query) {
				assert.Zero(t, s)
			}
		})
	}
}

func TestEngine_Options(t *testing.T) {
	engine := newGreetingEngine(t, WithThreshold(0), WithLimit(1))
	assert.Equal(t, Params{Threshold: 0, Limit: 1}, engine.Params())

	results, err := engine.Score("hello")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	normalizer := simpleNormalizer(t)
	state := buildState(t, "x", greetingCaptions, testTable(t), normalizer)
	_, err = NewEngine(state, normalizer, WithThreshold(1.5))
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewEngine(state, normalizer, WithLimit(-1))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestEngine_InvalidParams(t *testing.T) {
	engine := newGreetingEngine(t)
	_, err := engine.ScoreWith("hello", Params{Threshold: 1.1})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = engine.ScoreWith("hello", Params{Threshold: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestEngine_NoThreshold(t *testing.T) {
	normalizer := simpleNormalizer(t)
	state := buildState(t, "x", []string{"hello world", "", "the"}, testTable(t), normalizer)
	engine, err := NewEngine(state, normalizer)
	require.NoError(t, err)

	filtered, err := engine.ScoreWith("hello", Params{Threshold: 0})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	results, err := engine.ScoreWith("hello", Params{Threshold: NoThreshold})
	require.NoError(t, err)
	require.Len(t, results, 3, "empty documents are ranked when filtering is off")
	assert.Equal(t, 0, results[0].DocumentIndex)
	assert.InDelta(t, 0.7071, results[0].Score, 1e-3)
	assert.Equal(t, 1, results[1].DocumentIndex)
	assert.Zero(t, results[1].Score)
	assert.Equal(t, "", results[1].Text)
	assert.Equal(t, 2, results[2].DocumentIndex)

	limited, err := engine.ScoreWith("hello", Params{Threshold: NoThreshold, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestNewEngine_Errors(t *testing.T) {
	normalizer := simpleNormalizer(t)
	state := buildState(t, "x", greetingCaptions, testTable(t), normalizer)

	_, err := NewEngine(state, nil)
	assert.ErrorIs(t, err, ErrNormalizerRequired)

	_, err = NewEngine(nil, normalizer)
	assert.ErrorIs(t, err, core.ErrMalformedIndex)

	lemma, err := text.New(text.DefaultStopwords(), text.WithLemmatizer(testTable(t)))
	require.NoError(t, err)
	_, err = NewEngine(state, lemma)
	assert.ErrorIs(t, err, ErrTokenizerMismatch)
}

func TestEngine_LemmaMode(t *testing.T) {
	table := testTable(t)
	lemma, err := text.New(text.DefaultStopwords(), text.WithLemmatizer(table))
	require.NoError(t, err)

	state := buildState(t, "lemma", []string{"videos about hello", "the world"}, table, lemma)
	engine, err := NewEngine(state, lemma)
	require.NoError(t, err)

	results, err := engine.ScoreWith("video", Params{Threshold: 0})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 0, results[0].DocumentIndex, "plural and singular normalize to the same term")
}
