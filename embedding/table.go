package embedding

import (
	"fmt"

	"github.com/poiesic/capsearch/core"
)

// Table maps terms to unit-length vectors of a fixed dimension.
// It is read-only after construction and safe for concurrent readers.
type Table struct {
	dim     int
	terms   []string
	index   map[string]int
	vectors []float32 // len(terms)*dim, row-major
}

// NewTable builds a table from parallel term and vector slices. Vectors are
// normalized to unit length. When a term repeats, its first vector wins.
func NewTable(terms []string, vectors [][]float32) (*Table, error) {
	if len(terms) != len(vectors) {
		return nil, fmt.Errorf("%w: %d terms but %d vectors", core.ErrInvalidDimension, len(terms), len(vectors))
	}
	if len(terms) == 0 {
		return nil, ErrEmptyTable
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector for %q", core.ErrInvalidDimension, terms[0])
	}

	t := &Table{
		dim:     dim,
		terms:   make([]string, 0, len(terms)),
		index:   make(map[string]int, len(terms)),
		vectors: make([]float32, 0, len(terms)*dim),
	}
	for i, term := range terms {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: vector for %q has %d dimensions, want %d",
				core.ErrInvalidDimension, term, len(vectors[i]), dim)
		}
		if term == "" {
			continue
		}
		if _, dup := t.index[term]; dup {
			continue
		}
		t.index[term] = len(t.terms)
		t.terms = append(t.terms, term)
		t.vectors = append(t.vectors, NormalizeVector(vectors[i])...)
	}
	if len(t.terms) == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

// Dim returns the vector dimension.
func (t *Table) Dim() int {
	return t.dim
}

// Len returns the number of terms.
func (t *Table) Len() int {
	return len(t.terms)
}

// Terms returns the terms in insertion order. The slice must not be modified.
func (t *Table) Terms() []string {
	return t.terms
}

// Contains reports whether term has a vector. Table satisfies text.Lexicon.
func (t *Table) Contains(term string) bool {
	_, ok := t.index[term]
	return ok
}

// Vector returns the unit vector for term. The slice must not be modified.
func (t *Table) Vector(term string) ([]float32, bool) {
	i, ok := t.index[term]
	if !ok {
		return nil, false
	}
	return t.row(i), true
}

// Cosine returns the cosine similarity of two terms and whether both are known.
func (t *Table) Cosine(a, b string) (float64, bool) {
	va, ok := t.Vector(a)
	if !ok {
		return 0, false
	}
	vb, ok := t.Vector(b)
	if !ok {
		return 0, false
	}
	return Dot(va, vb), true
}

func (t *Table) row(i int) []float32 {
	return t.vectors[i*t.dim : (i+1)*t.dim : (i+1)*t.dim]
}
