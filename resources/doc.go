// Package resources handles the large binary artifacts capsearch depends on,
// chiefly the embedding table cache.
//
// Some hosting environments cap the size of a single deployed file, so a cache
// can be split into numbered chunk files (chunk0, chunk1, ...) and joined back
// before it is decoded. Writes go through WriteFileAtomic so a reader never
// observes a partially written artifact.
package resources
