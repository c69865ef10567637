package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/bloom"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/config"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/embedding"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/metrics"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/personalization"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/readhistory"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/similarity"
)

func newTestServer(t *testing.T) (*gin.Engine, index.Gateway, *miniredis.Miniredis) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	logger := observability.NewLogger("test")
	tracer := observability.NewTracer("test")

	ttls := cache.TTLs{
		Similar:            time.Hour,
		SimilarLRU:         24 * time.Hour,
		Personalized:       time.Hour,
		PersonalizedSearch: time.Hour,
	}
	layer, err := cache.NewLayerFromClient(client, ttls, 100, logger)
	require.NoError(t, err)

	gw := index.NewMemoryGateway()
	embedder := embedding.NewDeterministicMock(32)
	seen := bloom.New(client, "test_seen", 1000, 0.01)

	simCfg := config.SimilarityConfig{
		VectorThreshold: 0.5,
		TextWeight:      0.4,
		SemanticWeight:  0.3,
		CategoryWeight:  0.2,
		TemporalWeight:  0.1,
		LRUMaxSize:      100,
	}
	simEngine := similarity.New(gw, embedder, layer, simCfg, logger, tracer, seen)

	personCfg := config.PersonalizationConfig{
		VectorThreshold:     0.4,
		SearchThreshold:     0.3,
		PreferenceDecay:     0.1,
		ReadFilterMissRatio: 0.3,
		MinTopupBuffer:      2,
	}
	prefs := personalization.NewPreferenceStore(client)
	history := readhistory.New(client, time.Hour)
	personEngine := personalization.New(gw, embedder, layer, prefs, history, personCfg, logger, tracer)

	tracker := metrics.New(client, 48*time.Hour, time.Hour, logger)

	srv := &Server{
		Gateway:         gw,
		Cache:           layer,
		Similarity:      simEngine,
		Personalization: personEngine,
		Preferences:     prefs,
		History:         history,
		Metrics:         tracker,
		Logger:          logger,
		RequestTimeout:  5 * time.Second,
		EnableCORS:      true,
	}

	return srv.NewRouter(), gw, mr
}

func seedTestArticle(t *testing.T, gw index.Gateway, id, topic string, published time.Time) {
	embedder := embedding.NewDeterministicMock(32)
	vec, err := embedder.Embed(context.Background(), topic)
	require.NoError(t, err)
	a := models.Article{
		ID:          id,
		Title:       topic + " headline",
		Keywords:    []string{topic},
		Source:      models.Source{Name: "Reuters"},
		PublishedAt: published,
		Vector:      vec,
	}
	require.NoError(t, gw.PutDoc(context.Background(), &a))
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpointReportsOK(t *testing.T) {
	router, _, mr := newTestServer(t)
	defer mr.Close()

	rec := doRequest(router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestListNewsReturnsPaginationEnvelope(t *testing.T) {
	router, gw, mr := newTestServer(t)
	defer mr.Close()

	seedTestArticle(t, gw, "a1", "technology", time.Now().Add(-time.Hour))
	seedTestArticle(t, gw, "a2", "sports", time.Now())

	rec := doRequest(router, http.MethodGet, "/api/news?limit=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, true, pagination["hasMore"])
}

func TestGetArticleUnknownIDReturns404(t *testing.T) {
	router, _, mr := newTestServer(t)
	defer mr.Close()

	rec := doRequest(router, http.MethodGet, "/api/news/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimilarEndpointReturnsMatchesAndCachesOnSecondCall(t *testing.T) {
	router, gw, mr := newTestServer(t)
	defer mr.Close()

	seedTestArticle(t, gw, "target", "technology", time.Now())
	seedTestArticle(t, gw, "match", "technology", time.Now())

	first := doRequest(router, http.MethodGet, "/api/news/target/similar", nil)
	require.Equal(t, http.StatusOK, first.Code)
	firstBody := decodeBody(t, first)
	assert.Equal(t, false, firstBody["cached"])

	second := doRequest(router, http.MethodGet, "/api/news/target/similar", nil)
	require.Equal(t, http.StatusOK, second.Code)
	secondBody := decodeBody(t, second)
	assert.Equal(t, true, secondBody["cached"])
}

func TestSearchEndpointDispatchesOnTopic(t *testing.T) {
	router, gw, mr := newTestServer(t)
	defer mr.Close()

	seedTestArticle(t, gw, "a1", "technology", time.Now())
	seedTestArticle(t, gw, "a2", "sports", time.Now())

	rec := doRequest(router, http.MethodGet, "/api/news/search?topic=technology", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].([]interface{})
	assert.Len(t, data, 1)
}

func TestUserPreferencesRoundTripAndPersonalizedFeed(t *testing.T) {
	router, gw, mr := newTestServer(t)
	defer mr.Close()

	seedTestArticle(t, gw, "tech1", "technology", time.Now())

	setBody, err := json.Marshal(preferencesRequest{Topics: []string{"technology"}})
	require.NoError(t, err)

	setRec := doRequest(router, http.MethodPost, "/api/user/u1/preferences", setBody)
	require.Equal(t, http.StatusOK, setRec.Code)

	getRec := doRequest(router, http.MethodGet, "/api/user/u1/preferences", nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	getBody := decodeBody(t, getRec)
	data := getBody["data"].(map[string]interface{})
	prefs := data["preferences"].([]interface{})
	assert.Equal(t, "technology", prefs[0])

	feedRec := doRequest(router, http.MethodGet, "/api/user/u1/personalized-news", nil)
	require.Equal(t, http.StatusOK, feedRec.Code)
}

func TestAdminClearAllExceptUserSucceeds(t *testing.T) {
	router, _, mr := newTestServer(t)
	defer mr.Close()

	rec := doRequest(router, http.MethodPost, "/api/admin/clear-all-cache-except-user", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
