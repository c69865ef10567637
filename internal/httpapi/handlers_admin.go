package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
)

func (s *Server) handleSimilarStats(c *gin.Context) {
	id := c.Param("id")
	stats, err := s.Cache.GetStats(c.Request.Context(), cache.NamespaceSimilarStats, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": stats})
}

func (s *Server) handleClearSimilarCache(c *gin.Context) {
	id := c.Param("id")
	if err := s.Cache.Invalidate(c.Request.Context(), cache.NamespaceSimilar, id); err != nil {
		respondError(c, err)
		return
	}
	// Similar results are cached per (limit, offset) under similar:{id}:{limit}:{offset}.
	if _, err := s.Cache.InvalidatePattern(c.Request.Context(), cache.Key(cache.NamespaceSimilar, id)+":*"); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"cleared": true, "id": id})
}

func (s *Server) handleClearAllExceptUser(c *gin.Context) {
	report := s.Cache.ClearAllExceptUser(c.Request.Context())
	respondOK(c, gin.H{"data": report})
}

type clearTypesRequest struct {
	Types []string `json:"types"`
}

func (s *Server) handleClearSpecificCacheTypes(c *gin.Context) {
	var req clearTypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadInput("clear_specific_types_bind", err))
		return
	}
	report := s.Cache.ClearSpecificTypes(c.Request.Context(), req.Types)
	respondOK(c, gin.H{"data": report})
}

func (s *Server) handleClearSpecificTypes(c *gin.Context) {
	s.handleClearSpecificCacheTypes(c)
}

func (s *Server) handleCacheStatistics(c *gin.Context) {
	namespaces := []cache.Namespace{cache.NamespaceSimilarStats, cache.NamespacePersonalizedStats}
	out := make(map[string]interface{}, len(namespaces))
	for _, ns := range namespaces {
		out[string(ns)] = "per-subject; query /api/admin/similar-stats/:id for detail"
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
