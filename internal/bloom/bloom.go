// Package bloom implements a Redis-bitset-backed probabilistic membership
// test for the "seen-recently" hints spec.md §4.2 step 2 and the
// similar_bloom namespace want, grounded on
// tomtom215-cartographus/internal/cache/bloom.go's optimal bit-size/hash-
// count formula — reimplemented over SETBIT/GETBIT since this membership
// set must be shared across requests via the cache layer, not local.
package bloom

import (
	"context"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
)

// Filter is a single named Redis-backed bloom filter.
type Filter struct {
	client   *redis.Client
	key      string
	size     uint64
	hashFns  int
}

// New sizes a filter for expectedItems at falsePositiveRate, backed by the
// bitset stored at key.
//
//	m = -n*ln(p) / ln(2)^2   (bits)
//	k = (m/n) * ln(2)        (hash functions)
func New(client *redis.Client, key string, expectedItems int, falsePositiveRate float64) *Filter {
	if expectedItems <= 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	ln2 := math.Ln2
	m := int(-float64(expectedItems) * math.Log(falsePositiveRate) / (ln2 * ln2))
	if m < 64 {
		m = 64
	}
	k := int(float64(m) / float64(expectedItems) * ln2)
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	return &Filter{client: client, key: key, size: uint64(m), hashFns: k}
}

// Add records member as seen. Best-effort: spec.md §4.2 step 2 tolerates
// failures here without aborting the request.
func (f *Filter) Add(ctx context.Context, member string) error {
	pipe := f.client.Pipeline()
	for _, bit := range f.bitsFor(member) {
		pipe.SetBit(ctx, f.key, int64(bit), 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Test reports whether member was possibly added before. False means
// definitely not; true may be a false positive at the configured rate.
func (f *Filter) Test(ctx context.Context, member string) (bool, error) {
	pipe := f.client.Pipeline()
	cmds := make([]*redis.IntCmd, 0, f.hashFns)
	for _, bit := range f.bitsFor(member) {
		cmds = append(cmds, pipe.GetBit(ctx, f.key, int64(bit)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	for _, c := range cmds {
		if c.Val() == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Expire sets a TTL on the underlying bitset key (spec.md's similar_bloom
// namespace TTL, 3600s by default).
func (f *Filter) Expire(ctx context.Context, seconds int64) error {
	return f.client.Expire(ctx, f.key, time.Duration(seconds)*time.Second).Err()
}

func (f *Filter) bitsFor(member string) []uint64 {
	h1, h2 := fnv64a(member), djb2(member)
	bits := make([]uint64, f.hashFns)
	for i := 0; i < f.hashFns; i++ {
		combined := h1 + uint64(i)*h2
		bits[i] = combined % f.size
	}
	return bits
}

func fnv64a(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func djb2(s string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) + uint64(s[i])
	}
	return h
}
