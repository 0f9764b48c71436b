// Package similarity builds the sparse term-to-term similarity matrix used
// by soft-cosine scoring.
//
// Entry (i, j) is cos(e_i, e_j)^Exponent for the word embeddings e of two
// dictionary terms, kept only when the cosine exceeds Threshold. Each row
// holds at most NonzeroLimit off-diagonal entries. Rows are assembled in
// decreasing IDF order, so rare terms claim their neighbours first and the
// budget is honoured on both ends of every symmetric pair. The diagonal is 1
// for every term, with or without an embedding.
package similarity
