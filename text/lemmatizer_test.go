package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLemmatizer(t *testing.T) {
	lexicon := NewWordList("dog", "class", "city", "make", "fast", "good", "run")
	l := NewLemmatizer(lexicon, false)

	tests := []struct {
		name string
		word string
		pos  Pos
		want string
	}{
		{"noun plural", "dogs", PosNoun, "dog"},
		{"noun ending in ss kept", "class", PosNoun, "class"},
		{"noun ies", "cities", PosNoun, "city"},
		{"untagged uses noun rules", "dogs", PosNone, "dog"},
		{"verb ing with e", "making", PosVerb, "make"},
		{"adjective comparative", "faster", PosAdj, "fast"},
		{"adjective irregular", "better", PosAdj, "good"},
		{"stem fallback", "running", PosNoun, "run"},
		{"surface fallback", "quantum", PosNoun, "quantum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Lemmatize(tt.word, tt.pos))
		})
	}
}

func TestLemmatizer_NeverStem(t *testing.T) {
	l := NewLemmatizer(NewWordList("run"), true)
	assert.Equal(t, "running", l.Lemmatize("running", PosNoun))
}

func TestSuffixTagger(t *testing.T) {
	tags := SuffixTagger{}.Tag([]string{"The", "students", "will", "quickly", "learn", "useful", "things"})
	assert.Equal(t, []string{"DT", "NNS", "MD", "RB", "VB", "JJ", "NNS"}, tags)
}
