package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/personalization"
)

func (s *Server) handleGenerateUserID(c *gin.Context) {
	userID := personalization.GenerateUserID(func() string { return uuid.NewString() })
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

const maxPreferenceCount = 10

// preferencesRequest is spec.md §6's wire contract for setting topics:
// {"topics": [...]}, not "preferences".
type preferencesRequest struct {
	Topics []string `json:"topics"`
}

// normalizePreferences trims, lowercases, and dedupes topics, capping the
// result at maxPreferenceCount (spec.md P10).
func normalizePreferences(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxPreferenceCount {
			break
		}
	}
	return out
}

func (s *Server) handleSetPreferences(c *gin.Context) {
	userID := c.Param("userId")
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadInput("set_preferences_bind", err))
		return
	}

	topics := normalizePreferences(req.Topics)
	if len(topics) == 0 {
		respondError(c, apperrors.BadInput("set_preferences_validate", nil))
		return
	}

	existing, err := s.Preferences.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	prefs := models.UserPreferences{UserID: userID, Preferences: topics}
	if existing != nil {
		prefs.CreatedAt = existing.CreatedAt
	}

	if _, err := s.Preferences.Put(c.Request.Context(), prefs); err != nil {
		respondError(c, err)
		return
	}
	if err := s.Personalization.InvalidateUser(c.Request.Context(), userID); err != nil {
		s.Logger.Warn("preference update cache invalidation failed", map[string]interface{}{"userId": userID, "error": err.Error()})
	}
	c.JSON(http.StatusOK, gin.H{"data": prefs})
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	userID := c.Param("userId")
	prefs, err := s.Preferences.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if prefs == nil {
		prefs = &models.UserPreferences{UserID: userID, Preferences: []string{}, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	}
	c.JSON(http.StatusOK, gin.H{"data": prefs})
}

func (s *Server) handlePersonalizedFeed(c *gin.Context) {
	userID := c.Param("userId")
	limit, offset := pageParams(c)
	result, err := s.Personalization.PersonalizedFeed(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, paginationEnvelope(c, result.Articles, result.Total, limit, offset))
}

func (s *Server) handlePersonalizedSearch(c *gin.Context) {
	userID := c.Param("userId")
	query := c.Query("q")
	limit, offset := pageParams(c)
	result, err := s.Personalization.PersonalizedSearch(c.Request.Context(), userID, query, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, paginationEnvelope(c, result.Articles, result.Total, limit, offset))
}

func (s *Server) handleUserHistory(c *gin.Context) {
	userID := c.Param("userId")
	limit, _ := pageParams(c)
	ids, err := s.History.ListRead(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": ids})
}
