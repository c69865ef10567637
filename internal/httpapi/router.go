// Package httpapi is the thin HTTP surface over the core engines: routing,
// request parsing, and response envelopes only — every decision lives in
// the engines themselves, grounded on the teacher's api/handlers package
// shape (gin-gonic/gin, one handler per route, a shared error-to-status
// helper).
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/metrics"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/personalization"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/readhistory"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/similarity"
)

// Server bundles every engine the handlers dispatch to.
type Server struct {
	Gateway         index.Gateway
	Cache           *cache.Layer
	Similarity      *similarity.Engine
	Personalization *personalization.Engine
	Preferences     *personalization.PreferenceStore
	History         *readhistory.Store
	Metrics         *metrics.Tracker
	Logger          *observability.Logger
	RequestTimeout  time.Duration
	EnableCORS      bool
}

// NewRouter builds the gin engine with every route in spec.md §6 wired to
// its handler.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	if s.EnableCORS {
		r.Use(s.cors())
	}

	r.GET("/api/health", s.handleHealth)

	news := r.Group("/api/news")
	{
		news.GET("", s.handleListNews)
		news.GET("/:id", s.handleGetArticle)
		news.GET("/:id/similar", s.handleSimilar)
		news.GET("/:id/metrics", s.handleArticleMetrics)
		news.GET("/search", s.handleSearch)
		news.GET("/topic/:topic", s.handleByTopic)
		news.GET("/sentiment/:sentiment", s.handleBySentiment)
		news.GET("/trending", s.handleTrending)
	}

	user := r.Group("/api/user")
	{
		user.POST("/generate-id", s.handleGenerateUserID)
		user.POST("/:userId/preferences", s.handleSetPreferences)
		user.GET("/:userId/preferences", s.handleGetPreferences)
		user.PUT("/:userId/preferences", s.handleSetPreferences)
		user.GET("/:userId/personalized-news", s.handlePersonalizedFeed)
		user.GET("/:userId/personalized-news/search", s.handlePersonalizedSearch)
		user.GET("/:userId/history", s.handleUserHistory)
	}

	meta := r.Group("/api/metadata")
	{
		meta.GET("/topics", s.handleTopics)
		meta.GET("/sentiments", s.handleSentiments)
		meta.GET("/sources", s.handleSources)
	}

	admin := r.Group("/api/admin")
	{
		admin.GET("/similar-stats/:id", s.handleSimilarStats)
		admin.GET("/clear-similar-cache/:id", s.handleClearSimilarCache)
		admin.POST("/clear-all-cache-except-user", s.handleClearAllExceptUser)
		admin.POST("/clear-specific-cache-types", s.handleClearSpecificTypes)
		admin.GET("/cache-statistics", s.handleCacheStatistics)
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// respondError maps a typed apperrors.Error onto its HTTP status and a
// uniform error envelope.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
