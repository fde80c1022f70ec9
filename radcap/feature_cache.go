package radcap

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// FeatureCache keeps encoder outputs keyed by image content, so the same
// image listed twice in a test set is only encoded once.
type FeatureCache struct {
	capacity int
	entries  map[uint64][]float32
	order    []uint64
	hits     int
	misses   int
}

// NewFeatureCache creates a cache holding at most capacity feature vectors.
// A capacity <= 0 disables caching.
func NewFeatureCache(capacity int) *FeatureCache {
	return &FeatureCache{
		capacity: capacity,
		entries:  make(map[uint64][]float32),
		order:    make([]uint64, 0),
	}
}

// ComputeHash hashes the preprocessing mode, the output size and the image bytes
func (fc *FeatureCache) ComputeHash(mode string, size int, image []byte) uint64 {
	h := xxhash.New()

	h.WriteString(mode)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(size))
	h.Write(buf)

	h.Write(image)

	return h.Sum64()
}

// HashFile hashes an image file on disk
func (fc *FeatureCache) HashFile(mode string, size int, path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read image: %w", err)
	}
	return fc.ComputeHash(mode, size, data), nil
}

// Get returns the cached features for a hash
func (fc *FeatureCache) Get(hash uint64) ([]float32, bool) {
	features, ok := fc.entries[hash]
	if ok {
		fc.hits++
	} else {
		fc.misses++
	}
	return features, ok
}

// Put stores features, evicting the oldest entry when full
func (fc *FeatureCache) Put(hash uint64, features []float32) {
	if fc.capacity <= 0 {
		return
	}
	if _, ok := fc.entries[hash]; ok {
		fc.entries[hash] = features
		return
	}
	if len(fc.order) >= fc.capacity {
		oldest := fc.order[0]
		fc.order = fc.order[1:]
		delete(fc.entries, oldest)
	}
	fc.entries[hash] = features
	fc.order = append(fc.order, hash)
}

// Len returns the number of cached vectors
func (fc *FeatureCache) Len() int {
	return len(fc.entries)
}

// Stats returns hit and miss counts
func (fc *FeatureCache) Stats() (hits, misses int) {
	return fc.hits, fc.misses
}
