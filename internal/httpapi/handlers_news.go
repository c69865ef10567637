package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/metrics"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

var articleFields = []string{"title", "description", "content", "keywords"}

func (s *Server) handleListNews(c *gin.Context) {
	limit, offset := pageParams(c)
	res, err := s.Gateway.TextSearch(c.Request.Context(), "", nil, nil, index.SearchOptions{SortBy: "publishedAt", Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, paginationEnvelope(c, res.Docs, res.Total, limit, offset))
}

// requestUserID reads the acting user from the x-user-id header, falling
// back to the ?userId query param; empty means anonymous (spec.md §6's S1
// scenario is opt-in, not mandatory).
func requestUserID(c *gin.Context) string {
	if id := c.GetHeader("x-user-id"); id != "" {
		return id
	}
	return c.Query("userId")
}

// handleGetArticle is scenario S1: fetching an article always records a
// view, and when the caller identifies itself (x-user-id header or
// ?userId), also marks the article read and invalidates that user's
// personalized cache so the next feed/search excludes it.
func (s *Server) handleGetArticle(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	article, err := s.Gateway.GetDoc(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if article == nil {
		respondError(c, apperrors.NotFound("get_article", nil))
		return
	}

	userID := requestUserID(c)
	if err := s.Metrics.RecordView(ctx, id, metrics.ViewEvent{
		UserID:    userID,
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
		Language:  c.GetHeader("Accept-Language"),
	}); err != nil {
		s.Logger.Warn("record view failed", map[string]interface{}{"articleId": id, "error": err.Error()})
	}

	if userID != "" {
		if err := s.History.MarkRead(ctx, userID, id); err != nil {
			s.Logger.Warn("mark read failed", map[string]interface{}{"articleId": id, "userId": userID, "error": err.Error()})
		}
		if err := s.Personalization.InvalidateUser(ctx, userID); err != nil {
			s.Logger.Warn("personalized cache invalidation failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		}
	}

	m, err := s.Metrics.Metrics(ctx, id)
	if err != nil {
		s.Logger.Warn("article metrics lookup failed", map[string]interface{}{"articleId": id, "error": err.Error()})
	}
	respondOK(c, gin.H{"data": article, "metrics": m})
}

func (s *Server) handleSimilar(c *gin.Context) {
	id := c.Param("id")
	limit, offset := pageParams(c)
	forceRefresh := c.Query("forceRefresh") == "true"
	result, err := s.Similarity.Similar(c.Request.Context(), id, limit, offset, forceRefresh)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"data":     result.Articles,
		"total":    result.Total,
		"cached":   result.Cached,
		"method":   result.Method,
		"fallback": result.Fallback,
	})
}

func (s *Server) handleArticleMetrics(c *gin.Context) {
	id := c.Param("id")
	m, err := s.Metrics.Metrics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": m})
}

// handleSearch implements spec.md §6.1's composite dispatch over
// {q, sentiment, source, topic}: sentiment/source are tag filters ANDed
// into whichever query runs; topic and q together are resolved as two
// independently-capped (1000) subqueries intersected by article id rather
// than folded into one filtered call, since a single combined TextSearch
// can't express "match the free-text query AND carry this topic keyword"
// without over- or under-constraining relevance ranking.
func (s *Server) handleSearch(c *gin.Context) {
	limit, offset := pageParams(c)
	query := c.Query("q")
	topic := c.Query("topic")

	var tagFilters index.Filter
	if sentiment := c.Query("sentiment"); sentiment != "" {
		tagFilters = addFilter(tagFilters, "sentiment", sentiment)
	}
	if source := c.Query("source"); source != "" {
		tagFilters = addFilter(tagFilters, "source.name", source)
	}

	ctx := c.Request.Context()

	switch {
	case topic != "" && query != "":
		docs, total, err := s.intersectTopicAndQuery(ctx, query, topic, tagFilters)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, paginationEnvelope(c, paginateDocs(docs, offset, limit), total, limit, offset))
	case topic != "":
		filters := addFilter(tagFilters, "keywords", topic)
		res, err := s.Gateway.TextSearch(ctx, "", nil, filters, index.SearchOptions{SortBy: "publishedAt", Limit: limit, Offset: offset})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, paginationEnvelope(c, res.Docs, res.Total, limit, offset))
	case query != "":
		res, err := s.Gateway.TextSearch(ctx, query, articleFields, tagFilters, index.SearchOptions{SortBy: sortForQuery(query), Limit: limit, Offset: offset})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, paginationEnvelope(c, res.Docs, res.Total, limit, offset))
	default:
		res, err := s.Gateway.TextSearch(ctx, "", nil, tagFilters, index.SearchOptions{SortBy: "publishedAt", Limit: limit, Offset: offset})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, paginationEnvelope(c, res.Docs, res.Total, limit, offset))
	}
}

const topicQueryIntersectCap = 1000

// intersectTopicAndQuery runs the free-text query (sorted newest-first,
// tagFilters ANDed in) and the topic keyword filter as two separately
// capped subqueries, then intersects their results by article id,
// preserving the query subquery's ordering.
func (s *Server) intersectTopicAndQuery(ctx context.Context, query, topic string, tagFilters index.Filter) ([]models.Article, int, error) {
	queryRes, err := s.Gateway.TextSearch(ctx, query, articleFields, tagFilters, index.SearchOptions{SortBy: "publishedAt", Limit: topicQueryIntersectCap})
	if err != nil {
		return nil, 0, err
	}
	topicRes, err := s.Gateway.TextSearch(ctx, "", nil, addFilter(tagFilters, "keywords", topic), index.SearchOptions{SortBy: "publishedAt", Limit: topicQueryIntersectCap})
	if err != nil {
		return nil, 0, err
	}

	inTopic := make(map[string]bool, len(topicRes.Docs))
	for _, d := range topicRes.Docs {
		inTopic[d.ID] = true
	}

	out := make([]models.Article, 0, len(queryRes.Docs))
	for _, d := range queryRes.Docs {
		if inTopic[d.ID] {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

// addFilter copies base (nil-safe) and sets key/value, leaving the
// original untouched since tagFilters is reused across dispatch branches.
func addFilter(base index.Filter, key, value string) index.Filter {
	out := make(index.Filter, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

// paginateDocs applies offset/limit to an already-materialized doc slice,
// used by the topic+q intersect path since its result isn't produced by a
// single paginated TextSearch call.
func paginateDocs(docs []models.Article, offset, limit int) []models.Article {
	if offset >= len(docs) {
		return nil
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

// sortForQuery leaves relevance ordering alone for a real query, but sorts
// by recency when there's no query text to rank against (topic-only or
// bare listing).
func sortForQuery(query string) string {
	if query == "" {
		return "publishedAt"
	}
	return ""
}

func (s *Server) handleByTopic(c *gin.Context) {
	topic := c.Param("topic")
	limit, offset := pageParams(c)
	res, err := s.Gateway.TextSearch(c.Request.Context(), "", nil, index.Filter{"keywords": topic}, index.SearchOptions{SortBy: "publishedAt", Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, paginationEnvelope(c, res.Docs, res.Total, limit, offset))
}

func (s *Server) handleBySentiment(c *gin.Context) {
	sentiment := c.Param("sentiment")
	limit, offset := pageParams(c)
	res, err := s.Gateway.TextSearch(c.Request.Context(), "", nil, index.Filter{"sentiment": sentiment}, index.SearchOptions{SortBy: "publishedAt", Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, paginationEnvelope(c, res.Docs, res.Total, limit, offset))
}

func (s *Server) handleTrending(c *gin.Context) {
	limit, _ := pageParams(c)
	res, err := s.Gateway.TextSearch(c.Request.Context(), "", nil, nil, index.SearchOptions{SortBy: "publishedAt", Limit: 200})
	if err != nil {
		respondError(c, err)
		return
	}
	ids := make([]string, 0, len(res.Docs))
	byID := make(map[string]int)
	for i, d := range res.Docs {
		ids = append(ids, d.ID)
		byID[d.ID] = i
	}

	trending, err := s.Metrics.Trending(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range trending {
		if idx, ok := byID[trending[i].Article.ID]; ok {
			trending[i].Article = res.Docs[idx]
		}
	}
	if limit > 0 && limit < len(trending) {
		trending = trending[:limit]
	}
	respondOK(c, gin.H{"data": trending})
}
