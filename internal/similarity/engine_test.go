package similarity

import (
	"context"
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
)

func testSimilarityConfig() config.SimilarityConfig {
	return config.SimilarityConfig{
		VectorThreshold: 0.5,
		TextWeight:      0.4,
		SemanticWeight:  0.3,
		CategoryWeight:  0.2,
		TemporalWeight:  0.1,
		LRUMaxSize:      100,
	}
}

func newTestEngine(t *testing.T) (*Engine, *index.MemoryGateway, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	layer, err := cache.NewLayerFromClient(client, cache.TTLs{Similar: time.Hour}, 10, observability.NewLogger("test"))
	require.NoError(t, err)

	gw := index.NewMemoryGateway()
	embedder := embedding.NewDeterministicMock(32)
	tracer := observability.NewTracer("test")

	engine := New(gw, embedder, layer, testSimilarityConfig(), observability.NewLogger("test"), tracer, nil)
	return engine, gw, mr
}

func seedArticle(t *testing.T, gw *index.MemoryGateway, id, text string, published time.Time) models.Article {
	a := models.Article{ID: id, Title: text, Keywords: []string{text}, PublishedAt: published}
	embedder := embedding.NewDeterministicMock(32)
	vec, err := embedder.Embed(context.Background(), a.SearchText())
	require.NoError(t, err)
	a.Vector = vec
	require.NoError(t, gw.PutDoc(context.Background(), &a))
	return a
}

func TestSimilarReturnsVectorMatchForIdenticalText(t *testing.T) {
	engine, gw, mr := newTestEngine(t)
	defer mr.Close()
	ctx := context.Background()

	seedArticle(t, gw, "target", "quantum computing breakthrough", time.Now())
	seedArticle(t, gw, "match", "quantum computing breakthrough", time.Now())
	seedArticle(t, gw, "unrelated", "recipe for sourdough bread", time.Now())

	result, err := engine.Similar(ctx, "target", 10, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "vector", result.Method)
	require.NotEmpty(t, result.Articles)
	assert.Equal(t, "match", result.Articles[0].Article.ID)
}

func TestSimilarCachesResult(t *testing.T) {
	engine, gw, mr := newTestEngine(t)
	defer mr.Close()
	ctx := context.Background()

	seedArticle(t, gw, "target", "space exploration", time.Now())
	seedArticle(t, gw, "match", "space exploration", time.Now())

	first, err := engine.Similar(ctx, "target", 10, 0, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := engine.Similar(ctx, "target", 10, 0, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
}

func TestSimilarForceRefreshSkipsCache(t *testing.T) {
	engine, gw, mr := newTestEngine(t)
	defer mr.Close()
	ctx := context.Background()

	seedArticle(t, gw, "target", "space exploration", time.Now())
	seedArticle(t, gw, "match", "space exploration", time.Now())

	first, err := engine.Similar(ctx, "target", 10, 0, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	refreshed, err := engine.Similar(ctx, "target", 10, 0, true)
	require.NoError(t, err)
	assert.False(t, refreshed.Cached)
}

func TestSimilarUnknownArticleIsNotFound(t *testing.T) {
	engine, _, mr := newTestEngine(t)
	defer mr.Close()

	_, err := engine.Similar(context.Background(), "nope", 10, 0, false)
	assert.Error(t, err)
}

func TestFuseRanksCombinesWeightedScores(t *testing.T) {
	a := models.Article{ID: "a1"}
	text := []models.RankedArticle{{Article: a, Method: "text", Similarity: 1.0}}
	sem := []models.RankedArticle{{Article: a, Method: "semantic", Similarity: 1.0}}

	out := fuseRanks(text, 0.4, sem, 0.3, nil, 0.2, nil, 0.1)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.7, out[0].FinalScore, 1e-9)
}
