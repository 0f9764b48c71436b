// Package embedding provides the word embedding table used to relate terms
// that are spelled differently but mean similar things.
//
// A Provider loads the table once per process. It prefers a cached table
// (a single file or a directory of split chunks) and falls back to a Source
// that builds one, either from a GloVe/word2vec text file or by embedding a
// vocabulary through an OpenAI-compatible service. Built tables are written
// back to the cache atomically.
//
// Vectors are normalized to unit length on construction, so the cosine of two
// terms is their dot product.
package embedding
