package preprocessing

import (
	"hash/fnv"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

// DefaultNumFeatures is the size of the hashed categorical space.
const DefaultNumFeatures = 256

// FeatureHasher maps column=value pairs into a fixed number of buckets with
// 32-bit FNV-1a. Unseen values land in an existing bucket.
type FeatureHasher struct {
	NumFeatures int
}

// NewFeatureHasher creates a FeatureHasher with n buckets.
func NewFeatureHasher(n int) (*FeatureHasher, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("numFeatures", "must be positive", n)
	}
	return &FeatureHasher{NumFeatures: n}, nil
}

// Bucket returns the bucket index for value in column.
func (h *FeatureHasher) Bucket(column, value string) int {
	f := fnv.New32a()
	_, _ = f.Write([]byte(column))
	_, _ = f.Write([]byte{'='})
	_, _ = f.Write([]byte(value))
	return int(f.Sum32() % uint32(h.NumFeatures))
}
