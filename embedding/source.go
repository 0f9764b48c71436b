package embedding

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/poiesic/capsearch/core"
)

// Source builds an embedding table when no cache is available.
type Source interface {
	Build(ctx context.Context) (*Table, error)
	// Describe names the source in logs.
	Describe() string
}

// TextVectorsSource reads vectors in GloVe or word2vec text format: one term
// per line followed by its components, separated by spaces. A word2vec
// "count dim" header line is skipped. Gzip input is detected automatically.
type TextVectorsSource struct {
	Path string
	// Limit caps the number of terms read; 0 reads the whole file.
	Limit int
}

// NewTextVectorsSource returns a source reading path.
func NewTextVectorsSource(path string) *TextVectorsSource {
	return &TextVectorsSource{Path: path}
}

// Describe implements Source.
func (s *TextVectorsSource) Describe() string {
	return "vectors:" + s.Path
}

// Build implements Source.
func (s *TextVectorsSource) Build(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrResourceUnavailable, err)
	}
	defer f.Close()

	r, err := maybeGunzip(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrResourceUnavailable, s.Path, err)
	}
	return ReadTextVectors(ctx, r, s.Limit)
}

func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return gzip.NewReader(br)
	}
	return br, nil
}

// ReadTextVectors parses GloVe/word2vec text vectors from r.
func ReadTextVectors(ctx context.Context, r io.Reader, limit int) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		terms   []string
		vectors [][]float32
		dim     int
		line    int
	)
	for scanner.Scan() {
		line++
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && isHeader(fields) {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d has no components", core.ErrInvalidDimension, line)
		}
		if dim == 0 {
			dim = len(fields) - 1
		}
		if len(fields)-1 != dim {
			return nil, fmt.Errorf("%w: line %d has %d components, want %d",
				core.ErrInvalidDimension, line, len(fields)-1, dim)
		}

		vec := make([]float32, dim)
		for i, field := range fields[1:] {
			f, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = float32(f)
		}
		terms = append(terms, fields[0])
		vectors = append(vectors, vec)

		if limit > 0 && len(terms) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewTable(terms, vectors)
}

func isHeader(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

// LoadVocabulary reads a newline-delimited word list, skipping blank lines,
// "#" comments and duplicates.
func LoadVocabulary(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words, scanner.Err()
}

// LoadVocabularyFile reads a vocabulary from path.
func LoadVocabularyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrResourceUnavailable, err)
	}
	defer f.Close()
	return LoadVocabulary(f)
}
