package text

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/capsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStopwords(t *testing.T) {
	set := DefaultStopwords()
	assert.True(t, set.Contains("me"))
	assert.True(t, set.Contains("the"))
	assert.False(t, set.Contains("hello"))
	assert.False(t, set.Contains(""))
}

func TestLoadStopwords(t *testing.T) {
	set, err := LoadStopwords(strings.NewReader("alpha\n\n  beta  \r\ngamma"))
	require.NoError(t, err)
	assert.Len(t, set, 3)
	assert.True(t, set.Contains("beta"))
}

func TestLoadStopwordsFile(t *testing.T) {
	t.Run("empty path selects bundled list", func(t *testing.T) {
		set, err := LoadStopwordsFile("")
		require.NoError(t, err)
		assert.True(t, set.Contains("me"))
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "english")
		require.NoError(t, os.WriteFile(path, []byte("foo\nbar\n"), 0644))
		set, err := LoadStopwordsFile(path)
		require.NoError(t, err)
		assert.Equal(t, NewStopwordSet("foo", "bar"), set)
	})

	t.Run("missing file is resource unavailable", func(t *testing.T) {
		_, err := LoadStopwordsFile(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrResourceUnavailable))
	})
}
