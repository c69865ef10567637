package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

func (s *Server) handleTopics(c *gin.Context) {
	topics, err := s.Gateway.Aggregate(c.Request.Context(), "keywords")
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": topics})
}

func (s *Server) handleSentiments(c *gin.Context) {
	respondOK(c, gin.H{"data": []models.Sentiment{
		models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral,
	}})
}

func (s *Server) handleSources(c *gin.Context) {
	sources, err := s.Gateway.Aggregate(c.Request.Context(), "source.name")
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": sources})
}
