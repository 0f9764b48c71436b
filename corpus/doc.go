// Package corpus turns normalized caption lines into a term dictionary and
// a TF-IDF weighting model.
//
// Weights follow the usual information-retrieval formulation:
//
//	w(t, d) = tf(t, d) * log2(N / df(t))
//
// normalized to unit L2 length per document, with negligible weights dropped.
// The model depends on the dictionary alone, so an index only needs to store
// the dictionary to reproduce query-time weights.
package corpus
