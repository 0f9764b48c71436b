package text

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/capsearch/core"
)

//go:embed stopwords/english
var englishStopwords string

// StopwordSet is an immutable set of terms excluded from normalization.
type StopwordSet map[string]struct{}

// Contains reports whether term is a stopword.
func (s StopwordSet) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// NewStopwordSet builds a set from terms.
func NewStopwordSet(terms ...string) StopwordSet {
	set := make(StopwordSet, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	return set
}

// DefaultStopwords returns the bundled English stopword list.
func DefaultStopwords() StopwordSet {
	set, _ := LoadStopwords(strings.NewReader(englishStopwords))
	return set
}

// LoadStopwords reads newline-delimited terms. Blank lines are ignored and
// surrounding whitespace is trimmed.
func LoadStopwords(r io.Reader) (StopwordSet, error) {
	set := make(StopwordSet)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term == "" {
			continue
		}
		set[term] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadStopwordsFile reads a stopword list from path. An empty path selects the
// bundled list.
func LoadStopwordsFile(path string) (StopwordSet, error) {
	if path == "" {
		return DefaultStopwords(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stopwords: %w", core.ErrResourceUnavailable, err)
	}
	defer f.Close()

	set, err := LoadStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("%w: stopwords %s: %w", core.ErrResourceUnavailable, path, err)
	}
	return set, nil
}
