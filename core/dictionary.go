package core

import (
	"fmt"
	"slices"
)

// Dictionary maps normalized terms to integer IDs and records how many
// documents each term appears in. IDs are dense, starting at zero.
// A Dictionary never changes after construction.
type Dictionary struct {
	terms   []string
	docFreq []int32
	numDocs int
	ids     map[string]TermID
}

// NewDictionary creates a dictionary from terms in ID order and their document frequencies.
func NewDictionary(terms []string, docFreq []int32, numDocs int) (*Dictionary, error) {
	if len(terms) != len(docFreq) {
		return nil, fmt.Errorf("%w: %d terms but %d document frequencies", ErrMalformedIndex, len(terms), len(docFreq))
	}
	if numDocs < 0 {
		return nil, fmt.Errorf("%w: negative document count", ErrMalformedIndex)
	}
	ids := make(map[string]TermID, len(terms))
	for i, term := range terms {
		if _, dup := ids[term]; dup {
			return nil, fmt.Errorf("%w: duplicate term %q", ErrMalformedIndex, term)
		}
		ids[term] = TermID(i)
	}
	return &Dictionary{
		terms:   slices.Clone(terms),
		docFreq: slices.Clone(docFreq),
		numDocs: numDocs,
		ids:     ids,
	}, nil
}

// Len returns the number of terms.
func (d *Dictionary) Len() int {
	return len(d.terms)
}

// NumDocs returns the number of documents the dictionary was built from.
func (d *Dictionary) NumDocs() int {
	return d.numDocs
}

// Term returns the term string for id.
func (d *Dictionary) Term(id TermID) string {
	return d.terms[id]
}

// Terms returns the terms in ID order. The returned slice must not be modified.
func (d *Dictionary) Terms() []string {
	return d.terms
}

// DocFreq returns the number of documents containing the term.
func (d *Dictionary) DocFreq(id TermID) int {
	return int(d.docFreq[id])
}

// Lookup resolves a term to its ID.
func (d *Dictionary) Lookup(term string) (TermID, bool) {
	id, ok := d.ids[term]
	return id, ok
}

// Doc2Bow converts tokens into a bag-of-words vector.
// Tokens that are not in the dictionary are dropped.
func (d *Dictionary) Doc2Bow(tokens []string) BagOfWords {
	counts := make(map[TermID]int32, len(tokens))
	for _, token := range tokens {
		if id, ok := d.ids[token]; ok {
			counts[id]++
		}
	}
	bow := make(BagOfWords, 0, len(counts))
	for id, count := range counts {
		bow = append(bow, TermCount{ID: id, Count: count})
	}
	slices.SortFunc(bow, func(a, b TermCount) int {
		return int(a.ID) - int(b.ID)
	})
	return bow
}

// DictionaryBuilder accumulates documents into a Dictionary. Within one
// document, new terms get IDs in lexical order, so IDs follow the order in
// which documents first mention a term.
type DictionaryBuilder struct {
	terms   []string
	docFreq []int32
	numDocs int
	ids     map[string]TermID
}

// NewDictionaryBuilder returns an empty builder.
func NewDictionaryBuilder() *DictionaryBuilder {
	return &DictionaryBuilder{ids: make(map[string]TermID)}
}

// Add records one document. New terms take IDs in order of first
// occurrence.
func (b *DictionaryBuilder) Add(tokens []string) {
	b.numDocs++

	seen := make(map[string]struct{}, len(tokens))
	for _, term := range tokens {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		id, ok := b.ids[term]
		if !ok {
			id = TermID(len(b.terms))
			b.ids[term] = id
			b.terms = append(b.terms, term)
			b.docFreq = append(b.docFreq, 0)
		}
		b.docFreq[id]++
	}
}

// Dictionary returns the accumulated dictionary. The builder may keep
// accepting documents afterwards without affecting the returned value.
func (b *DictionaryBuilder) Dictionary() *Dictionary {
	ids := make(map[string]TermID, len(b.ids))
	for term, id := range b.ids {
		ids[term] = id
	}
	return &Dictionary{
		terms:   slices.Clone(b.terms),
		docFreq: slices.Clone(b.docFreq),
		numDocs: b.numDocs,
		ids:     ids,
	}
}
