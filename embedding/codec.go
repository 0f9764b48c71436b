package embedding

import (
	"bytes"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/capsearch/core"
)

// Cache file layout: magic, format version, BLAKE2b-256 of the body, body.
var cacheMagic = []byte("CSET")

const (
	cacheVersion    byte = 1
	checksumSize         = 32
	cacheHeaderSize      = 4 + 1 + checksumSize
)

// TableMUS serializes a Table as dim, count, then each term followed by its
// dim float32 components.
var TableMUS = tableMUS{}

type tableMUS struct{}

func (s tableMUS) Marshal(t *Table, bs []byte) (n int) {
	n = varint.Int.Marshal(t.dim, bs)
	n += varint.Int.Marshal(len(t.terms), bs[n:])
	for i, term := range t.terms {
		n += ord.String.Marshal(term, bs[n:])
		for _, f := range t.row(i) {
			n += raw.Float32.Marshal(f, bs[n:])
		}
	}
	return
}

func (s tableMUS) Unmarshal(bs []byte) (t *Table, n int, err error) {
	dim, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	count, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	// Every entry needs at least one length byte plus dim floats.
	if dim <= 0 || count <= 0 || count > (len(bs)-n)/(1+4*dim) {
		err = fmt.Errorf("%w: bad table shape %dx%d", ErrCacheCorrupt, count, dim)
		return
	}

	t = &Table{
		dim:     dim,
		terms:   make([]string, count),
		index:   make(map[string]int, count),
		vectors: make([]float32, count*dim),
	}
	for i := 0; i < count; i++ {
		t.terms[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		t.index[t.terms[i]] = i
		row := t.vectors[i*dim : (i+1)*dim]
		for j := range row {
			row[j], n1, err = raw.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	return
}

func (s tableMUS) Size(t *Table) (size int) {
	size = varint.Int.Size(t.dim)
	size += varint.Int.Size(len(t.terms))
	for _, term := range t.terms {
		size += ord.String.Size(term)
	}
	size += len(t.vectors) * raw.Float32.Size(0)
	return
}

// EncodeCache serializes t into the cache file format.
func EncodeCache(t *Table) []byte {
	body := make([]byte, TableMUS.Size(t))
	TableMUS.Marshal(t, body)

	out := make([]byte, 0, cacheHeaderSize+len(body))
	out = append(out, cacheMagic...)
	out = append(out, cacheVersion)
	out = append(out, core.Checksum(body)...)
	return append(out, body...)
}

// DecodeCache verifies and decodes a cache file.
func DecodeCache(data []byte) (*Table, error) {
	if len(data) < cacheHeaderSize || !bytes.Equal(data[:4], cacheMagic) {
		return nil, fmt.Errorf("%w: missing header", ErrCacheCorrupt)
	}
	if data[4] != cacheVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCacheVersion, data[4])
	}
	sum := data[5:cacheHeaderSize]
	body := data[cacheHeaderSize:]
	if !bytes.Equal(sum, core.Checksum(body)) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCacheCorrupt)
	}

	t, n, err := TableMUS.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupt, err)
	}
	if n != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCacheCorrupt, len(body)-n)
	}
	return t, nil
}
