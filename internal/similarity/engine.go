// Package similarity implements SimilarityEngine: cache-first related-
// article lookup with a vector-KNN primary path and a four-strategy
// rank-fusion fallback, grounded on internal/search/hybrid_search.go's
// multi-strategy blend and pkg/repository/vector/repository.go's KNN
// query shape.
package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/bloom"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/config"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/embedding"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
)

// Engine is SimilarityEngine.
type Engine struct {
	gateway  index.Gateway
	embedder embedding.Provider
	cache    *cache.Layer
	cfg      config.SimilarityConfig
	logger   *observability.Logger
	tracer   *observability.Tracer
	seenSet  *bloom.Filter
}

// New builds an Engine. seenSet may be nil, in which case the "seen
// recently" bloom hint (spec.md §4.2 step 2) is skipped.
func New(gw index.Gateway, embedder embedding.Provider, cl *cache.Layer, cfg config.SimilarityConfig, logger *observability.Logger, tracer *observability.Tracer, seenSet *bloom.Filter) *Engine {
	return &Engine{gateway: gw, embedder: embedder, cache: cl, cfg: cfg, logger: logger, tracer: tracer, seenSet: seenSet}
}

// Similar returns up to limit articles related to articleID, offset into
// the ranked result. It is the entry point for GET /api/news/:id/similar.
// forceRefresh skips the cache probe (spec.md §4.2 step 1), recomputing and
// overwriting whatever is currently cached.
func (e *Engine) Similar(ctx context.Context, articleID string, limit, offset int, forceRefresh bool) (models.SimilarResult, error) {
	ctx, span := e.tracer.Start(ctx, "similarity.Similar", map[string]interface{}{"articleId": articleID, "limit": limit})
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	cacheSubject := articleID
	cacheParams := []string{fmt.Sprint(limit), fmt.Sprint(offset)}

	env, sidecar, hit, err := e.cache.Probe(ctx, cache.NamespaceSimilar, cacheSubject, cacheParams...)
	if !forceRefresh && err == nil && hit {
		e.bumpStats(ctx, articleID, "cache_hits")
		age := time.Duration(0)
		if sidecar != nil {
			age = time.Since(sidecar.LastUpdated)
		}
		return models.SimilarResult{
			Articles: env.Results,
			Total:    len(env.Results),
			Cached:   true,
			CacheAge: age,
			Method:   env.Method,
		}, nil
	}
	e.bumpStats(ctx, articleID, "cache_misses")

	if e.seenSet != nil {
		seen, serr := e.seenSet.Test(ctx, articleID)
		if serr == nil && !seen {
			_ = e.seenSet.Add(ctx, articleID)
		}
	}

	target, err := e.gateway.GetDoc(ctx, articleID)
	if err != nil {
		span.RecordError(err)
		return models.SimilarResult{}, err
	}
	if target == nil {
		return models.SimilarResult{}, apperrors.NotFound("similar_target_lookup", fmt.Errorf("article %s not found", articleID))
	}

	searchText := target.SearchText()

	result, err := e.primaryVectorPath(ctx, target, searchText, limit, offset)
	if err != nil {
		e.logger.Warn("vector similarity path failed, falling back", map[string]interface{}{"articleId": articleID, "error": err.Error()})
		result, err = e.fallbackBlend(ctx, target, searchText, limit)
		if err != nil {
			span.RecordError(err)
			return e.tombstone(articleID), nil
		}
		result.Fallback = true
	}

	result.Total = len(result.Articles)
	result = paginate(result, offset, limit)

	e.writeBack(ctx, cacheSubject, cacheParams, result)
	return result, nil
}

func (e *Engine) bumpStats(ctx context.Context, articleID, event string) {
	_ = e.cache.StatsBump(ctx, cache.NamespaceSimilarStats, articleID, event)
}

// primaryVectorPath runs a single vectorKNN call against the target's
// embedding and keeps matches at or above the configured threshold
// (spec.md §4.2: 0.5 for SimilarityEngine). It asks for limit+offset+20
// candidates so threshold filtering still leaves enough to paginate into.
func (e *Engine) primaryVectorPath(ctx context.Context, target *models.Article, searchText string, limit, offset int) (models.SimilarResult, error) {
	vec := target.Vector
	keywordsUsed := false
	if len(vec) == 0 {
		v, err := e.embedder.Embed(ctx, searchText)
		if err != nil {
			return models.SimilarResult{}, err
		}
		vec = v
		keywordsUsed = true
	}

	matches, err := e.gateway.VectorKNN(ctx, vec, limit+offset+20, nil, target.ID)
	if err != nil {
		return models.SimilarResult{}, err
	}

	var ranked []models.RankedArticle
	for _, m := range matches {
		if m.Similarity() < e.cfg.VectorThreshold {
			continue
		}
		ranked = append(ranked, models.RankedArticle{
			Article:      m.Doc,
			Method:       "vector",
			Similarity:   m.Similarity(),
			KeywordsUsed: keywordsUsed,
		})
	}
	if len(ranked) == 0 {
		return models.SimilarResult{}, apperrors.NotFound("primary_vector_path", fmt.Errorf("no matches above threshold"))
	}

	return models.SimilarResult{Articles: ranked, Method: "vector"}, nil
}

// tombstone is the last-resort empty result returned when both the
// primary and fallback paths fail catastrophically (spec.md §4.2).
func (e *Engine) tombstone(articleID string) models.SimilarResult {
	e.logger.Error("similarity tombstoned", map[string]interface{}{"articleId": articleID})
	return models.SimilarResult{Articles: nil, Total: 0, Method: "none", Fallback: true}
}

func paginate(result models.SimilarResult, offset, limit int) models.SimilarResult {
	if offset >= len(result.Articles) {
		result.Articles = nil
		return result
	}
	end := offset + limit
	if end > len(result.Articles) {
		end = len(result.Articles)
	}
	result.Articles = result.Articles[offset:end]
	return result
}

func (e *Engine) writeBack(ctx context.Context, subject string, params []string, result models.SimilarResult) {
	env := models.Envelope{
		Results:   result.Articles,
		Timestamp: time.Now(),
		Method:    result.Method,
	}
	sidecar := models.Sidecar{
		TotalCount:  result.Total,
		Timestamp:   env.Timestamp,
		Method:      result.Method,
		LastUpdated: env.Timestamp,
	}
	if err := e.cache.Put(ctx, cache.NamespaceSimilar, subject, params, env, sidecar, e.cfg.LRUMaxSize); err != nil {
		e.logger.Warn("similarity cache write-back failed", map[string]interface{}{"subject": subject, "error": err.Error()})
	}
}
