package core

import (
	"fmt"
	"slices"
)

// SimilarityMatrix is a sparse symmetric term-by-term similarity form.
// Row i holds the nonzero entries for term i ordered by column, including
// the diagonal. It is never mutated after construction.
type SimilarityMatrix struct {
	rows [][]Weight
}

// NewSimilarityMatrix wraps rows that are already sorted by column.
func NewSimilarityMatrix(rows [][]Weight) (*SimilarityMatrix, error) {
	for i, row := range rows {
		for j := 1; j < len(row); j++ {
			if row[j-1].ID >= row[j].ID {
				return nil, fmt.Errorf("%w: row %d is not strictly ordered", ErrMalformedIndex, i)
			}
		}
		for _, w := range row {
			if w.ID < 0 || int(w.ID) >= len(rows) {
				return nil, fmt.Errorf("%w: row %d references column %d", ErrMalformedIndex, i, w.ID)
			}
		}
	}
	return &SimilarityMatrix{rows: rows}, nil
}

// Len returns the matrix dimension.
func (m *SimilarityMatrix) Len() int {
	return len(m.rows)
}

// Row returns the entries of row i. The returned slice must not be modified.
func (m *SimilarityMatrix) Row(i TermID) []Weight {
	return m.rows[i]
}

// At returns the similarity between terms i and j, zero if absent.
func (m *SimilarityMatrix) At(i, j TermID) float32 {
	row := m.rows[i]
	k, found := slices.BinarySearchFunc(row, j, func(w Weight, id TermID) int {
		return int(w.ID) - int(id)
	})
	if !found {
		return 0
	}
	return row[k].Value
}

// NonZero returns the number of stored entries.
func (m *SimilarityMatrix) NonZero() int {
	n := 0
	for _, row := range m.rows {
		n += len(row)
	}
	return n
}
