package corpus

import (
	"math"
	"testing"

	"github.com/poiesic/capsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Dictionary(t *testing.T) {
	docs := [][]string{
		{"world", "hello", "hello"},
		{},
		{"forget", "hello"},
	}
	dict, model := Build(docs)

	assert.Equal(t, 3, dict.NumDocs())
	assert.Equal(t, []string{"world", "hello", "forget"}, dict.Terms())
	assert.Equal(t, 3, model.Len())

	id, ok := dict.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, 2, dict.DocFreq(id))
	assert.InDelta(t, math.Log2(3.0/2.0), model.IDF(id), 1e-12)

	id, _ = dict.Lookup("forget")
	assert.Equal(t, 1, dict.DocFreq(id))
	assert.InDelta(t, math.Log2(3.0), model.IDF(id), 1e-12)
}

func TestTfidf_Weight(t *testing.T) {
	docs := [][]string{
		{"hello", "world"},
		{"forget", "me"},
	}
	dict, model := Build(docs)

	t.Run("unit length", func(t *testing.T) {
		vec := model.Vectorize(dict, []string{"hello", "world"})
		require.Len(t, vec, 2)
		var sum float64
		for _, w := range vec {
			sum += float64(w.Value) * float64(w.Value)
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
		assert.InDelta(t, 1/math.Sqrt2, vec[0].Value, 1e-6)
	})

	t.Run("term frequency scales weight", func(t *testing.T) {
		vec := model.Vectorize(dict, []string{"hello", "hello", "world"})
		require.Len(t, vec, 2)
		assert.InDelta(t, 2/math.Sqrt(5), vec[0].Value, 1e-6)
		assert.InDelta(t, 1/math.Sqrt(5), vec[1].Value, 1e-6)
	})

	t.Run("unknown terms are dropped", func(t *testing.T) {
		vec := model.Vectorize(dict, []string{"planet", "hello"})
		require.Len(t, vec, 1)
		id, _ := dict.Lookup("hello")
		assert.Equal(t, id, vec[0].ID)
		assert.InDelta(t, 1.0, vec[0].Value, 1e-6)
	})

	t.Run("no known terms", func(t *testing.T) {
		assert.True(t, model.Vectorize(dict, []string{"planet"}).IsZero())
		assert.True(t, model.Vectorize(dict, nil).IsZero())
	})
}

func TestTfidf_UbiquitousTermsWeighZero(t *testing.T) {
	dict, model := Build([][]string{{"video", "cat"}, {"video", "dog"}})

	vec := model.Vectorize(dict, []string{"video", "cat"})
	require.Len(t, vec, 1)
	cat, _ := dict.Lookup("cat")
	assert.Equal(t, cat, vec[0].ID)

	assert.True(t, model.Vectorize(dict, []string{"video"}).IsZero())
}

func TestTfidf_SingleDocumentCorpus(t *testing.T) {
	dict, model := Build([][]string{{"hello", "world"}})
	assert.True(t, model.Vectorize(dict, []string{"hello"}).IsZero())
}

func TestNewTfidf_MatchesBuild(t *testing.T) {
	dict, built := Build([][]string{{"a", "b"}, {"b", "c"}, {"c"}})
	derived := NewTfidf(dict)
	for i := 0; i < dict.Len(); i++ {
		assert.Equal(t, built.IDF(core.TermID(i)), derived.IDF(core.TermID(i)))
	}
	assert.Equal(t, 0.0, derived.IDF(99))
}
