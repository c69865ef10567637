// Package readhistory implements ReadHistory: a per-user sorted set of
// recently viewed article IDs used to filter personalized feeds, grounded
// on pkg/repository/redis/sorted_set.go's ZADD/ZRANGE/EXPIRE idiom.
package readhistory

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
)

// Store is ReadHistory.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a Store; ttl is the read-record expiry (spec.md §4.4's
// user_read_set namespace, default 7200s).
func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func setKey(userID string) string { return "user_read_set:" + userID }

// MarkRead records articleID as read by userID, scored by now, and
// refreshes the set's TTL.
func (s *Store) MarkRead(ctx context.Context, userID, articleID string) error {
	key := setKey(userID)
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(time.Now().UnixNano()), Member: articleID})
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.StoreUnavailable("mark_read", err)
	}
	return nil
}

// ListRead returns up to limit most-recently-read article IDs for userID,
// newest first.
func (s *Store) ListRead(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.client.ZRevRange(ctx, setKey(userID), 0, int64(limit-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, apperrors.StoreUnavailable("list_read", err)
	}
	return ids, nil
}

// ReadSet returns the full set of read article IDs for userID, for O(1)
// membership checks while filtering candidates.
func (s *Store) ReadSet(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.client.ZRange(ctx, setKey(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, apperrors.StoreUnavailable("read_set", err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// Filter removes every candidate already present in userID's read set,
// preserving candidate order.
func (s *Store) Filter(ctx context.Context, userID string, candidates []string) ([]string, error) {
	read, err := s.ReadSet(ctx, userID)
	if err != nil {
		return candidates, err
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !read[c] {
			out = append(out, c)
		}
	}
	return out, nil
}
