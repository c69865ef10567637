package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestLayer(t *testing.T) (*Layer, *miniredis.Miniredis) {
	mr, client := setupMiniRedis(t)
	ttls := TTLs{Similar: time.Hour, SimilarLRU: 24 * time.Hour}
	layer, err := NewLayerFromClient(client, ttls, 10, observability.NewLogger("test"))
	require.NoError(t, err)
	return layer, mr
}

func TestLayerPutThenProbeHits(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	env := models.Envelope{Results: []models.RankedArticle{{Article: models.Article{ID: "a1"}, Method: "vector"}}, Method: "vector"}
	sidecar := models.Sidecar{TotalCount: 1}

	require.NoError(t, layer.Put(ctx, NamespaceSimilar, "a1", []string{"10", "0"}, env, sidecar, 100))

	got, sc, hit, err := layer.Probe(ctx, NamespaceSimilar, "a1", "10", "0")
	require.NoError(t, err)
	assert.True(t, hit)
	require.NotNil(t, got)
	assert.Equal(t, 1, len(got.Results))
	require.NotNil(t, sc)
	assert.Equal(t, 1, sc.TotalCount)
}

func TestLayerProbeMiss(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	_, _, hit, err := layer.Probe(ctx, NamespaceSimilar, "missing")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLayerInvalidateRemovesEntry(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	env := models.Envelope{Method: "vector"}
	require.NoError(t, layer.Put(ctx, NamespaceSimilar, "a1", nil, env, models.Sidecar{}, 100))
	require.NoError(t, layer.Invalidate(ctx, NamespaceSimilar, "a1"))

	_, _, hit, err := layer.Probe(ctx, NamespaceSimilar, "a1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLayerStatsBumpAndGetStats(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, layer.StatsBump(ctx, NamespaceSimilarStats, "a1", "cache_hits"))
	require.NoError(t, layer.StatsBump(ctx, NamespaceSimilarStats, "a1", "cache_hits"))
	require.NoError(t, layer.StatsBump(ctx, NamespaceSimilarStats, "a1", "cache_misses"))

	stats, err := layer.GetStats(ctx, NamespaceSimilarStats, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLayerTouchLRUTrimsToMax(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, layer.touchLRU(ctx, NamespaceSimilar, keyForInt(i), 3))
	}

	card, err := layer.client.ZCard(ctx, LRUKey(NamespaceSimilar)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), card)
}

func keyForInt(i int) string {
	return Key(NamespaceSimilar, "art", string(rune('a'+i)))
}

func TestInvalidatePatternDeletesMatching(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, layer.Put(ctx, NamespaceSimilar, "a1", nil, models.Envelope{}, models.Sidecar{}, 10))
	require.NoError(t, layer.Put(ctx, NamespaceSimilar, "a2", nil, models.Envelope{}, models.Sidecar{}, 10))

	n, err := layer.InvalidatePattern(ctx, "similar:*")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}
