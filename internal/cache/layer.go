package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
)

// RedisConfig mirrors pkg/cache's RedisConfig shape.
type RedisConfig struct {
	Address      string
	Password     string
	Database     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// Layer is CacheLayer: a Redis-backed (L2), golang-lru-fronted (L1) cache
// with namespace-scoped envelopes, sidecars, LRU sets, and stats, grounded
// on internal/cache/multilevel_cache.go's MultiLevelCache.
type Layer struct {
	client  *redis.Client
	l1      *lru.Cache[string, []byte]
	ttls    TTLs
	logger  *observability.Logger
	metrics observability.MetricsClient
}

// NewLayer dials Redis and wraps it with an L1 cache of l1Size entries.
func NewLayer(cfg RedisConfig, ttls TTLs, l1Size int, logger *observability.Logger) (*Layer, error) {
	if l1Size <= 0 {
		l1Size = 1000
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.StoreUnavailable("new_layer_ping", err)
	}

	l1, err := lru.New[string, []byte](l1Size)
	if err != nil {
		return nil, apperrors.StoreUnavailable("new_layer_l1", err)
	}

	return &Layer{client: client, l1: l1, ttls: ttls, logger: logger, metrics: observability.NewMetricsClient()}, nil
}

// NewLayerFromClient wraps an existing *redis.Client (used by tests against
// miniredis).
func NewLayerFromClient(client *redis.Client, ttls TTLs, l1Size int, logger *observability.Logger) (*Layer, error) {
	if l1Size <= 0 {
		l1Size = 1000
	}
	l1, err := lru.New[string, []byte](l1Size)
	if err != nil {
		return nil, err
	}
	return &Layer{client: client, l1: l1, ttls: ttls, logger: logger, metrics: observability.NewMetricsClient()}, nil
}

// Client exposes the underlying Redis client for components (MetricsTracker,
// ReadHistory, bloom) that need raw Redis ops beyond the envelope/sidecar
// abstraction.
func (l *Layer) Client() *redis.Client { return l.client }

// Probe fetches the envelope and sidecar for (ns, subject) in a single
// pipelined round trip, per spec.md §4.2 step 1's "atomically" requirement.
// Returns (nil, nil, false, nil) on a clean miss.
func (l *Layer) Probe(ctx context.Context, ns Namespace, subject string, params ...string) (*models.Envelope, *models.Sidecar, bool, error) {
	mainKey := Key(ns, subject, params...)

	if data, ok := l.l1.Get(mainKey); ok {
		var env models.Envelope
		if err := json.Unmarshal(data, &env); err == nil {
			sc, _, _ := l.getSidecar(ctx, ns, subject)
			return &env, sc, true, nil
		}
	}

	sidecarKey := SidecarKey(ns, subject)
	pipe := l.client.Pipeline()
	mainCmd := pipe.Get(ctx, mainKey)
	sidecarCmd := pipe.Get(ctx, sidecarKey)
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, nil, false, apperrors.StoreUnavailable("probe", err)
	}

	mainBytes, mainErr := mainCmd.Bytes()
	if mainErr == redis.Nil {
		return nil, nil, false, nil
	}
	if mainErr != nil {
		return nil, nil, false, apperrors.StoreUnavailable("probe_main", mainErr)
	}

	var env models.Envelope
	if err := json.Unmarshal(mainBytes, &env); err != nil {
		return nil, nil, false, apperrors.StoreUnavailable("probe_unmarshal", err)
	}
	l.l1.Add(mainKey, mainBytes)

	var sidecar *models.Sidecar
	if sidecarBytes, err := sidecarCmd.Bytes(); err == nil {
		var sc models.Sidecar
		if json.Unmarshal(sidecarBytes, &sc) == nil {
			sidecar = &sc
		}
	}

	return &env, sidecar, true, nil
}

func (l *Layer) getSidecar(ctx context.Context, ns Namespace, subject string) (*models.Sidecar, bool, error) {
	data, err := l.client.Get(ctx, SidecarKey(ns, subject)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var sc models.Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, false, err
	}
	return &sc, true, nil
}

// Put writes the envelope and sidecar for (ns, subject, params), adds the
// main key to the namespace's LRU set, trims the LRU set to maxLRU most
// recent entries, and extends the LRU set's TTL (spec.md §4.2 step 7).
func (l *Layer) Put(ctx context.Context, ns Namespace, subject string, params []string, env models.Envelope, sidecar models.Sidecar, maxLRU int) error {
	mainKey := Key(ns, subject, params...)
	ttl := l.ttls.TTLFor(ns)

	envBytes, err := json.Marshal(env)
	if err != nil {
		return apperrors.BadInput("put_marshal", err)
	}
	sidecarBytes, err := json.Marshal(sidecar)
	if err != nil {
		return apperrors.BadInput("put_marshal_sidecar", err)
	}

	pipe := l.client.Pipeline()
	pipe.Set(ctx, mainKey, envBytes, ttl)
	pipe.Set(ctx, SidecarKey(ns, subject), sidecarBytes, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.StoreUnavailable("put", err)
	}

	l.l1.Add(mainKey, envBytes)

	if err := l.touchLRU(ctx, ns, mainKey, maxLRU); err != nil {
		l.logger.Warn("lru touch failed", map[string]interface{}{"namespace": ns, "error": err.Error()})
	}
	return nil
}

// touchLRU adds key to the namespace's LRU sorted set scored by now, trims
// it to the most recent maxLRU entries, and extends its TTL to
// lruTTL (spec.md §4.2 step 7: "24*cacheTimeout").
func (l *Layer) touchLRU(ctx context.Context, ns Namespace, key string, maxLRU int) error {
	lruKey := LRUKey(ns)
	now := float64(time.Now().UnixNano())

	pipe := l.client.Pipeline()
	pipe.ZAdd(ctx, lruKey, &redis.Z{Score: now, Member: key})
	if maxLRU > 0 {
		pipe.ZRemRangeByRank(ctx, lruKey, 0, int64(-maxLRU-1))
	}
	lruTTL := l.ttls.TTLFor(NamespaceSimilarLRU)
	if lruTTL > 0 {
		pipe.Expire(ctx, lruKey, lruTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// StatsBump increments the named event counter (cache_hits, cache_misses,
// total_requests) for (ns, subject).
func (l *Layer) StatsBump(ctx context.Context, ns Namespace, subject, event string) error {
	return l.client.HIncrBy(ctx, StatsKey(ns, subject), event, 1).Err()
}

// Stats returns the raw hit/miss/total counters and the derived hit rate
// for (ns, subject).
type Stats struct {
	Hits    int64
	Misses  int64
	Total   int64
	HitRate float64
}

func (l *Layer) GetStats(ctx context.Context, ns Namespace, subject string) (Stats, error) {
	res, err := l.client.HGetAll(ctx, StatsKey(ns, subject)).Result()
	if err != nil {
		return Stats{}, apperrors.StoreUnavailable("get_stats", err)
	}
	var s Stats
	if v, ok := res["cache_hits"]; ok {
		s.Hits = parseInt64(v)
	}
	if v, ok := res["cache_misses"]; ok {
		s.Misses = parseInt64(v)
	}
	if v, ok := res["total_requests"]; ok {
		s.Total = parseInt64(v)
	}
	if s.Total > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Total)
	}
	return s, nil
}

func parseInt64(s string) int64 {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int64(c-'0')
	}
	return n
}

// Invalidate removes the main entry, sidecar, and LRU-set member for
// (ns, subject, params); stats and bloom entries are left to the caller
// since they're optional per spec.md §4.4.
func (l *Layer) Invalidate(ctx context.Context, ns Namespace, subject string, params ...string) error {
	mainKey := Key(ns, subject, params...)
	l.l1.Remove(mainKey)

	pipe := l.client.Pipeline()
	pipe.Del(ctx, mainKey)
	pipe.Del(ctx, SidecarKey(ns, subject))
	pipe.ZRem(ctx, LRUKey(ns), mainKey)
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return apperrors.StoreUnavailable("invalidate", err)
	}
	return nil
}

// InvalidatePattern deletes every key matching pattern (via SCAN, never
// KEYS, to stay safe on a shared production instance) and returns the count
// removed. Used by preference-update cascading invalidation and admin ops.
func (l *Layer) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := l.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return count, apperrors.StoreUnavailable("invalidate_pattern_scan", err)
		}
		if len(keys) > 0 {
			if err := l.client.Del(ctx, keys...).Err(); err != nil {
				return count, apperrors.StoreUnavailable("invalidate_pattern_del", err)
			}
			for _, k := range keys {
				l.l1.Remove(k)
			}
			count += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count, nil
}
