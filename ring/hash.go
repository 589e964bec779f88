package ring

import "github.com/cespare/xxhash/v2"

// DefaultHasherFactory returns XXH64 digests: a fast, non-cryptographic
// hash that is stable across processes, so every node in the cluster
// agrees on key ownership without coordination.
func DefaultHasherFactory() Hasher {
	return xxhash.New()
}
