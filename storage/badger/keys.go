package badger

// Key prefixes for different data types
const (
	indexPrefix    = "capidx:"
	manifestPrefix = "capman:"
)

// makeIndexKey generates the key of a corpus index blob.
// Format: prefix:normalizedKey
func makeIndexKey(key string) []byte {
	return []byte(indexPrefix + key)
}

// makeManifestKey generates the key of a corpus manifest record.
// Format: prefix:normalizedKey
func makeManifestKey(key string) []byte {
	return []byte(manifestPrefix + key)
}
