package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Checksum returns a 256-bit BLAKE2b digest of data.
func Checksum(data []byte) []byte {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return h.Sum(nil)
}

// NormalizeKey canonicalizes a corpus identifier (e.g. a video ID).
// Keys compare case-insensitively, so "ABC123" and "abc123" name the same index.
func NormalizeKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}

// TermID is the integer handle of a term in a Dictionary.
type TermID int32

// TermCount is one entry of a bag-of-words vector.
type TermCount struct {
	ID    TermID
	Count int32
}

// BagOfWords is a sparse term count vector ordered by term ID.
type BagOfWords []TermCount

// Weight is one entry of a sparse real-valued vector.
type Weight struct {
	ID    TermID
	Value float32
}

// SparseVector is a sparse vector ordered by term ID.
type SparseVector []Weight

// IsZero reports whether the vector has no entries.
func (v SparseVector) IsZero() bool {
	return len(v) == 0
}

// Document is one caption line of an indexed corpus.
type Document struct {
	Index    int          // Position in the caption array
	Text     string       // Raw caption text
	Start    float64      // Caption start offset in seconds, 0 if unknown
	Duration float64      // Caption duration in seconds, 0 if unknown
	Vector   SparseVector // TF-IDF weighted bag of words
}

// IndexState is everything needed to answer queries for one corpus.
// It is immutable once built and safe for concurrent readers.
type IndexState struct {
	Key        string
	Tokenizer  string // Normalizer mode used at build time
	Dictionary *Dictionary
	Documents  []Document
	Matrix     *SimilarityMatrix
	BuiltAt    time.Time
}

// Validate checks that the parts of the state agree with each other.
func (s *IndexState) Validate() error {
	if s == nil {
		return ErrMalformedIndex
	}
	if s.Dictionary == nil || s.Matrix == nil {
		return ErrMalformedIndex
	}
	if s.Matrix.Len() != s.Dictionary.Len() {
		return ErrMalformedIndex
	}
	n := TermID(s.Dictionary.Len())
	for i, doc := range s.Documents {
		if doc.Index != i {
			return ErrMalformedIndex
		}
		for _, w := range doc.Vector {
			if w.ID < 0 || w.ID >= n {
				return ErrMalformedIndex
			}
		}
	}
	return nil
}

// Result is one ranked caption line.
type Result struct {
	DocumentIndex int
	Score         float64
	Text          string
	Start         float64
	Duration      float64
}

// IndexInfo summarizes a stored index without loading it.
type IndexInfo struct {
	Key       string
	Documents int
	Terms     int
	Tokenizer string
	Checksum  ID
	BuiltAt   time.Time
}
