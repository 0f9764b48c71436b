package core

// Hand-maintained MUS serializers for index records. Field order is part of
// the stored format; storage.indexSchemaVersion must change with it.

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var (
	SparseVectorMUS = sparseVectorMUS{}
	DictionaryMUS   = dictionaryMUS{}
	MatrixMUS       = matrixMUS{}
	DocumentMUS     = documentMUS{}
	IndexStateMUS   = indexStateMUS{}
)

// unmarshalLen reads a length prefix and rejects values that cannot fit in the
// remaining input, so corrupt blobs fail instead of allocating huge slices.
func unmarshalLen(bs []byte) (l, n int, err error) {
	l, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if l < 0 || l > len(bs)-n {
		err = fmt.Errorf("%w: length %d out of range", ErrMalformedIndex, l)
	}
	return
}

type sparseVectorMUS struct{}

func (s sparseVectorMUS) Marshal(v SparseVector, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, w := range v {
		n += varint.Int32.Marshal(int32(w.ID), bs[n:])
		n += raw.Float32.Marshal(w.Value, bs[n:])
	}
	return
}

func (s sparseVectorMUS) Unmarshal(bs []byte) (v SparseVector, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil {
		return
	}
	if l == 0 {
		return
	}
	v = make(SparseVector, l)
	var (
		id  int32
		val float32
		n1  int
	)
	for i := range v {
		id, n1, err = varint.Int32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		val, n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v[i] = Weight{ID: TermID(id), Value: val}
	}
	return
}

func (s sparseVectorMUS) Size(v SparseVector) (size int) {
	size = varint.Int.Size(len(v))
	for _, w := range v {
		size += varint.Int32.Size(int32(w.ID))
		size += raw.Float32.Size(w.Value)
	}
	return
}

func (s sparseVectorMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type dictionaryMUS struct{}

func (s dictionaryMUS) Marshal(v *Dictionary, bs []byte) (n int) {
	n = varint.Int.Marshal(v.numDocs, bs)
	n += varint.Int.Marshal(len(v.terms), bs[n:])
	for i, term := range v.terms {
		n += ord.String.Marshal(term, bs[n:])
		n += varint.Int32.Marshal(v.docFreq[i], bs[n:])
	}
	return
}

func (s dictionaryMUS) Unmarshal(bs []byte) (v *Dictionary, n int, err error) {
	numDocs, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	l, n1, err := unmarshalLen(bs[n:])
	n += n1
	if err != nil {
		return
	}
	terms := make([]string, l)
	docFreq := make([]int32, l)
	for i := 0; i < l; i++ {
		terms[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		docFreq[i], n1, err = varint.Int32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v, err = NewDictionary(terms, docFreq, numDocs)
	return
}

func (s dictionaryMUS) Size(v *Dictionary) (size int) {
	size = varint.Int.Size(v.numDocs)
	size += varint.Int.Size(len(v.terms))
	for i, term := range v.terms {
		size += ord.String.Size(term)
		size += varint.Int32.Size(v.docFreq[i])
	}
	return
}

func (s dictionaryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type matrixMUS struct{}

func (s matrixMUS) Marshal(v *SimilarityMatrix, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v.rows), bs)
	for _, row := range v.rows {
		n += SparseVectorMUS.Marshal(row, bs[n:])
	}
	return
}

func (s matrixMUS) Unmarshal(bs []byte) (v *SimilarityMatrix, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil {
		return
	}
	rows := make([][]Weight, l)
	var (
		row SparseVector
		n1  int
	)
	for i := range rows {
		row, n1, err = SparseVectorMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		rows[i] = row
	}
	v, err = NewSimilarityMatrix(rows)
	return
}

func (s matrixMUS) Size(v *SimilarityMatrix) (size int) {
	size = varint.Int.Size(len(v.rows))
	for _, row := range v.rows {
		size += SparseVectorMUS.Size(row)
	}
	return
}

func (s matrixMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Index, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += raw.Float64.Marshal(v.Start, bs[n:])
	n += raw.Float64.Marshal(v.Duration, bs[n:])
	n += SparseVectorMUS.Marshal(v.Vector, bs[n:])
	return
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Index, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Start, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Duration, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = SparseVectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = varint.Int.Size(v.Index)
	size += ord.String.Size(v.Text)
	size += raw.Float64.Size(v.Start)
	size += raw.Float64.Size(v.Duration)
	size += SparseVectorMUS.Size(v.Vector)
	return
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type indexStateMUS struct{}

func (s indexStateMUS) Marshal(v IndexState, bs []byte) (n int) {
	n = ord.String.Marshal(v.Key, bs)
	n += ord.String.Marshal(v.Tokenizer, bs[n:])
	n += varint.Int64.Marshal(v.BuiltAt.UnixMicro(), bs[n:])
	n += DictionaryMUS.Marshal(v.Dictionary, bs[n:])
	n += MatrixMUS.Marshal(v.Matrix, bs[n:])
	n += varint.Int.Marshal(len(v.Documents), bs[n:])
	for _, doc := range v.Documents {
		n += DocumentMUS.Marshal(doc, bs[n:])
	}
	return
}

func (s indexStateMUS) Unmarshal(bs []byte) (v IndexState, n int, err error) {
	v.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Tokenizer, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BuiltAt = time.UnixMicro(micros).UTC()
	v.Dictionary, n1, err = DictionaryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Matrix, n1, err = MatrixMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	l, n1, err := unmarshalLen(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Documents = make([]Document, l)
	for i := range v.Documents {
		v.Documents[i], n1, err = DocumentMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s indexStateMUS) Size(v IndexState) (size int) {
	size = ord.String.Size(v.Key)
	size += ord.String.Size(v.Tokenizer)
	size += varint.Int64.Size(v.BuiltAt.UnixMicro())
	size += DictionaryMUS.Size(v.Dictionary)
	size += MatrixMUS.Size(v.Matrix)
	size += varint.Int.Size(len(v.Documents))
	for _, doc := range v.Documents {
		size += DocumentMUS.Size(doc)
	}
	return
}

func (s indexStateMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
