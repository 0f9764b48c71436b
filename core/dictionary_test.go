package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDictionary(t *testing.T) {
	dict, err := NewDictionary([]string{"hello", "world"}, []int32{2, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, dict.Len())
	assert.Equal(t, 3, dict.NumDocs())
	assert.Equal(t, "world", dict.Term(1))
	assert.Equal(t, 2, dict.DocFreq(0))

	id, ok := dict.Lookup("world")
	assert.True(t, ok)
	assert.Equal(t, TermID(1), id)
	_, ok = dict.Lookup("planet")
	assert.False(t, ok)

	_, err = NewDictionary([]string{"a", "b"}, []int32{1}, 1)
	assert.ErrorIs(t, err, ErrMalformedIndex)
	_, err = NewDictionary([]string{"a", "a"}, []int32{1, 1}, 1)
	assert.ErrorIs(t, err, ErrMalformedIndex)
	_, err = NewDictionary(nil, nil, -1)
	assert.ErrorIs(t, err, ErrMalformedIndex)
}

func TestDictionary_Doc2Bow(t *testing.T) {
	dict, err := NewDictionary([]string{"hello", "world", "forget"}, []int32{1, 1, 1}, 2)
	require.NoError(t, err)

	bow := dict.Doc2Bow([]string{"world", "hello", "planet", "world"})
	assert.Equal(t, BagOfWords{{ID: 0, Count: 1}, {ID: 1, Count: 2}}, bow)

	assert.Empty(t, dict.Doc2Bow(nil))
	assert.Empty(t, dict.Doc2Bow([]string{"unknown"}))
}

func TestDictionaryBuilder(t *testing.T) {
	b := NewDictionaryBuilder()
	b.Add([]string{"world", "hello", "world"})
	b.Add([]string{"forget"})
	b.Add([]string{})
	b.Add([]string{"hello", "again"})

	dict := b.Dictionary()
	assert.Equal(t, []string{"world", "hello", "forget", "again"}, dict.Terms(),
		"IDs follow first occurrence across the document sequence")
	assert.Equal(t, 4, dict.NumDocs())
	assert.Equal(t, 1, dict.DocFreq(0), "repeats within a document count once")
	assert.Equal(t, 2, dict.DocFreq(1), "hello appears in two documents")

	b.Add([]string{"later"})
	assert.Equal(t, 4, dict.Len(), "returned dictionaries are snapshots")
	assert.Equal(t, 5, b.Dictionary().Len())
}
