package personalization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/config"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/embedding"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/readhistory"
)

func testPersonalizationConfig() config.PersonalizationConfig {
	return config.PersonalizationConfig{
		VectorThreshold:     0.4,
		SearchThreshold:     0.3,
		PreferenceDecay:     0.1,
		ReadFilterMissRatio: 0.3,
		MinTopupBuffer:      2,
	}
}

func newTestHarness(t *testing.T) (*Engine, *PreferenceStore, *index.MemoryGateway, *readhistory.Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	layer, err := cache.NewLayerFromClient(client, cache.TTLs{Personalized: time.Hour, PersonalizedSearch: time.Hour}, 10, observability.NewLogger("test"))
	require.NoError(t, err)

	gw := index.NewMemoryGateway()
	embedder := embedding.NewDeterministicMock(32)
	prefs := NewPreferenceStore(client)
	history := readhistory.New(client, time.Hour)
	tracer := observability.NewTracer("test")

	engine := New(gw, embedder, layer, prefs, history, testPersonalizationConfig(), observability.NewLogger("test"), tracer)
	return engine, prefs, gw, history, mr
}

func seedForTopic(t *testing.T, gw *index.MemoryGateway, id, topic string) {
	a := models.Article{ID: id, Title: topic, Keywords: []string{topic}, PublishedAt: time.Now()}
	embedder := embedding.NewDeterministicMock(32)
	vec, err := embedder.Embed(context.Background(), topic)
	require.NoError(t, err)
	a.Vector = vec
	require.NoError(t, gw.PutDoc(context.Background(), &a))
}

func TestPersonalizedFeedRanksByPreferenceOrder(t *testing.T) {
	engine, prefs, gw, _, mr := newTestHarness(t)
	defer mr.Close()
	ctx := context.Background()

	seedForTopic(t, gw, "tech1", "technology")
	seedForTopic(t, gw, "sports1", "sports")

	_, err := prefs.Put(ctx, models.UserPreferences{UserID: "u1", Preferences: []string{"technology", "sports"}})
	require.NoError(t, err)

	result, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Greater(t, result.PersonalizedCount, 0)
	require.Len(t, result.Articles, 2)
	assert.Equal(t, "tech1", result.Articles[0].Article.ID, "the first preference carries the highest weight")
	assert.Equal(t, "sports1", result.Articles[1].Article.ID)
}

func TestPersonalizedFeedCachesUntilPreferencesChange(t *testing.T) {
	engine, prefs, gw, _, mr := newTestHarness(t)
	defer mr.Close()
	ctx := context.Background()

	seedForTopic(t, gw, "tech1", "technology")
	_, err := prefs.Put(ctx, models.UserPreferences{UserID: "u1", Preferences: []string{"technology"}})
	require.NoError(t, err)

	first, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.True(t, second.Cached)

	_, err = prefs.Put(ctx, models.UserPreferences{UserID: "u1", Preferences: []string{"sports"}})
	require.NoError(t, err)

	third, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.False(t, third.Cached, "changed preferences must invalidate the version-guarded cache entry")
}

func TestPersonalizedFeedFiltersReadArticles(t *testing.T) {
	engine, prefs, gw, history, mr := newTestHarness(t)
	defer mr.Close()
	ctx := context.Background()

	seedForTopic(t, gw, "tech1", "technology")
	_, err := prefs.Put(ctx, models.UserPreferences{UserID: "u1", Preferences: []string{"technology"}})
	require.NoError(t, err)
	require.NoError(t, history.MarkRead(ctx, "u1", "tech1"))

	result, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	for _, a := range result.Articles {
		assert.NotEqual(t, "tech1", a.Article.ID)
	}
}

func TestPersonalizedFeedCacheHitReappliesReadFilter(t *testing.T) {
	engine, prefs, gw, history, mr := newTestHarness(t)
	defer mr.Close()
	ctx := context.Background()

	seedForTopic(t, gw, "tech1", "technology")
	seedForTopic(t, gw, "tech2", "technology")
	_, err := prefs.Put(ctx, models.UserPreferences{UserID: "u1", Preferences: []string{"technology"}})
	require.NoError(t, err)

	first, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	require.NoError(t, history.MarkRead(ctx, "u1", "tech1"))

	second, err := engine.PersonalizedFeed(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.True(t, second.Cached, "a single read below the miss ratio should still serve from cache")
	for _, a := range second.Articles {
		assert.NotEqual(t, "tech1", a.Article.ID, "cache hits must re-apply ReadHistory against the stored pre-filter list")
	}
}

func TestPersonalizedFeedCacheHitRecomputesPastMissRatio(t *testing.T) {
	engine, prefs, gw, history, mr := newTestHarness(t)
	defer mr.Close()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seedForTopic(t, gw, fmt.Sprintf("tech%d", i), "technology")
	}
	_, err := prefs.Put(ctx, models.UserPreferences{UserID: "u1", Preferences: []string{"technology"}})
	require.NoError(t, err)

	first, err := engine.PersonalizedFeed(ctx, "u1", 4, 0)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	for i := 0; i < 3; i++ {
		require.NoError(t, history.MarkRead(ctx, "u1", fmt.Sprintf("tech%d", i)))
	}

	second, err := engine.PersonalizedFeed(ctx, "u1", 4, 0)
	require.NoError(t, err)
	assert.False(t, second.Cached, "removing more than ReadFilterMissRatio of the cached list must force a recompute")
}

func TestVersionHashChangesWithPreferences(t *testing.T) {
	h1 := VersionHash([]string{"a", "b"})
	h2 := VersionHash([]string{"a", "c"})
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, VersionHash([]string{"a", "b"}))
}
