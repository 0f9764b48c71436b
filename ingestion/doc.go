// Package ingestion builds caption indexes.
//
// The Pipeline type manages the write path for a caption corpus:
//   - Optionally merging short captions into longer windows
//   - Normalizing caption text concurrently on a worker pool
//   - Building the dictionary, TF-IDF model and term similarity matrix
//   - Publishing the finished index to storage in one transaction
//
// An existing index for a key is reused unless a rebuild is requested.
package ingestion
