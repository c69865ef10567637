package personalization

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/config"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/embedding"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/readhistory"
)

// Engine is PersonalizationEngine.
type Engine struct {
	gateway  index.Gateway
	embedder embedding.Provider
	cache    *cache.Layer
	prefs    *PreferenceStore
	history  *readhistory.Store
	cfg      config.PersonalizationConfig
	logger   *observability.Logger
	tracer   *observability.Tracer
}

func New(gw index.Gateway, embedder embedding.Provider, cl *cache.Layer, prefs *PreferenceStore, history *readhistory.Store, cfg config.PersonalizationConfig, logger *observability.Logger, tracer *observability.Tracer) *Engine {
	return &Engine{gateway: gw, embedder: embedder, cache: cl, prefs: prefs, history: history, cfg: cfg, logger: logger, tracer: tracer}
}

// PersonalizedFeed returns up to limit articles ranked by the user's
// ordered preference list, filtered against their read history, topped up
// with general recent articles when preferences yield too few matches
// (spec.md §4.3).
func (e *Engine) PersonalizedFeed(ctx context.Context, userID string, limit, offset int) (models.FeedResult, error) {
	ctx, span := e.tracer.Start(ctx, "personalization.PersonalizedFeed", map[string]interface{}{"userId": userID})
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	prefs, err := e.prefs.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return models.FeedResult{}, err
	}
	var prefList []string
	if prefs != nil {
		prefList = prefs.Preferences
	}
	version := VersionHash(prefList)

	params := []string{fmt.Sprint(limit), fmt.Sprint(offset)}
	if env, _, hit, err := e.cache.Probe(ctx, cache.NamespacePersonalized, userID, params...); err == nil && hit && env.Version == version {
		if result, ok := e.tryServeFromCache(ctx, userID, env.Results, limit, offset); ok {
			_ = e.cache.StatsBump(ctx, cache.NamespacePersonalizedStats, userID, "cache_hits")
			result.Cached = true
			return result, nil
		}
	}
	_ = e.cache.StatsBump(ctx, cache.NamespacePersonalizedStats, userID, "cache_misses")

	ranked := e.rankByPreferences(ctx, prefList, limit, offset)

	personalizedCount := len(ranked)
	if len(ranked)-offset < limit+e.cfg.MinTopupBuffer {
		ranked = e.topUp(ctx, ranked, userID, limit)
	}

	// Cache stores the pre-filter, post-topup ranked list (spec.md §4.3
	// step 7) so a later cache hit can re-apply ReadHistory against
	// whatever has been read since, rather than baking today's filter
	// into the stored entry.
	e.writeBack(ctx, cache.NamespacePersonalized, userID, params, ranked, len(ranked), version)

	filtered, filteredRead := e.filterRead(ctx, userID, ranked)
	result := models.FeedResult{
		Articles:          paginateRanked(filtered, offset, limit),
		Total:             len(filtered),
		PersonalizedCount: personalizedCount,
		FilteredReadCount: filteredRead,
	}
	return result, nil
}

// filterRead removes articles already present in userID's read history,
// preserving order, and reports how many were removed.
func (e *Engine) filterRead(ctx context.Context, userID string, ranked []models.RankedArticle) ([]models.RankedArticle, int) {
	if e.history == nil || len(ranked) == 0 {
		return ranked, 0
	}
	ids := make([]string, len(ranked))
	byID := make(map[string]models.RankedArticle, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Article.ID
		byID[r.Article.ID] = r
	}
	kept, err := e.history.Filter(ctx, userID, ids)
	if err != nil {
		return ranked, 0
	}
	out := make([]models.RankedArticle, 0, len(kept))
	for _, id := range kept {
		out = append(out, byID[id])
	}
	return out, len(ids) - len(kept)
}

// tryServeFromCache re-applies the ReadHistory filter against a cached
// pre-filter ranked list. Per spec.md §4.3 step 2, if more than
// ReadFilterMissRatio of the cached list has since been read, the cache
// entry is treated as stale and the caller must recompute instead.
func (e *Engine) tryServeFromCache(ctx context.Context, userID string, cached []models.RankedArticle, limit, offset int) (models.FeedResult, bool) {
	filtered, removed := e.filterRead(ctx, userID, cached)
	if float64(removed) > e.cfg.ReadFilterMissRatio*float64(limit) {
		return models.FeedResult{}, false
	}
	return models.FeedResult{
		Articles:          paginateRanked(filtered, offset, limit),
		Total:             len(filtered),
		PersonalizedCount: len(filtered),
		FilteredReadCount: removed,
	}, true
}

// PersonalizedSearch runs a text search for query and re-ranks the hits by
// the user's preference weighting: a hit whose keywords include a preference
// scores that preference's weight, any other hit a base score of 0.4, and
// hits below the search threshold (spec.md §4.3, default 0.3) are dropped.
// The query is not embedded; no vector similarity is computed.
func (e *Engine) PersonalizedSearch(ctx context.Context, userID, query string, limit, offset int) (models.FeedResult, error) {
	ctx, span := e.tracer.Start(ctx, "personalization.PersonalizedSearch", map[string]interface{}{"userId": userID, "query": query})
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	prefs, err := e.prefs.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return models.FeedResult{}, err
	}
	var prefList []string
	if prefs != nil {
		prefList = prefs.Preferences
	}
	version := VersionHash(prefList)

	params := []string{query, fmt.Sprint(limit), fmt.Sprint(offset)}
	if env, _, hit, err := e.cache.Probe(ctx, cache.NamespacePersonalizedSearch, userID, params...); err == nil && hit && env.Version == version {
		if result, ok := e.tryServeFromCache(ctx, userID, env.Results, limit, offset); ok {
			result.Cached = true
			return result, nil
		}
	}

	searchRes, err := e.gateway.TextSearch(ctx, query, []string{"title", "description", "content", "keywords"}, nil, index.SearchOptions{Limit: limit * 3})
	if err != nil {
		span.RecordError(err)
		return models.FeedResult{}, err
	}

	weights := preferenceWeights(prefList)
	ranked := make([]models.RankedArticle, 0, len(searchRes.Docs))
	for _, doc := range searchRes.Docs {
		score := 0.4 // base relevance floor for a textual hit
		matched := ""
		order := -1
		for i, kw := range doc.Keywords {
			if w, ok := weights[kw]; ok && w > score {
				score = w
				matched = kw
				order = i
			}
		}
		if score < e.cfg.SearchThreshold {
			continue
		}
		ranked = append(ranked, models.RankedArticle{
			Article: doc, Method: "combined", FinalScore: score,
			MatchedPreference: matched, PreferenceOrder: order,
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].FinalScore > ranked[j].FinalScore })

	e.writeBack(ctx, cache.NamespacePersonalizedSearch, userID, params, ranked, len(ranked), version)

	filtered, filteredRead := e.filterRead(ctx, userID, ranked)
	result := models.FeedResult{
		Articles:          paginateRanked(filtered, offset, limit),
		Total:             len(filtered),
		FilteredReadCount: filteredRead,
	}
	return result, nil
}

// rankByPreferences issues one vectorKNN call per preference (the caller's
// ordered topic list), weighting earlier preferences more heavily via
// linear decay (1 - preferenceDecay*index), and merges + dedupes the
// results keeping each article's highest weighted score. Each call asks
// for limit+offset+20 candidates so threshold filtering and pagination
// still leave enough to fill a non-trivial offset.
func (e *Engine) rankByPreferences(ctx context.Context, preferences []string, limit, offset int) []models.RankedArticle {
	best := make(map[string]models.RankedArticle)
	k := limit + offset + 20

	for i, pref := range preferences {
		weight := 1 - e.cfg.PreferenceDecay*float64(i)
		if weight <= 0 {
			break
		}
		vec, err := e.embedder.Embed(ctx, pref)
		if err != nil {
			continue
		}
		matches, err := e.gateway.VectorKNN(ctx, vec, k, nil, "")
		if err != nil {
			continue
		}
		for _, m := range matches {
			if m.Similarity() < e.cfg.VectorThreshold {
				continue
			}
			score := weight * m.Similarity()
			if existing, ok := best[m.Doc.ID]; !ok || score > existing.FinalScore {
				best[m.Doc.ID] = models.RankedArticle{
					Article: m.Doc, Method: "vector", FinalScore: score,
					MatchedPreference: pref, PreferenceOrder: i,
				}
			}
		}
	}

	out := make([]models.RankedArticle, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out
}

// preferenceWeights turns an ordered preference list into a lookup of
// topic -> decayed weight, for re-ranking search hits.
func preferenceWeights(preferences []string) map[string]float64 {
	out := make(map[string]float64, len(preferences))
	for i, p := range preferences {
		out[p] = 1 - 0.1*float64(i)
	}
	return out
}

// topUp appends the most recent general articles not already present in
// ranked, until ranked holds limit+MinTopupBuffer entries or the fetched
// recent articles run out.
func (e *Engine) topUp(ctx context.Context, ranked []models.RankedArticle, userID string, limit int) []models.RankedArticle {
	have := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		have[r.Article.ID] = true
	}

	res, err := e.gateway.TextSearch(ctx, "", nil, nil, index.SearchOptions{SortBy: "publishedAt", Limit: limit * 2})
	if err != nil {
		return ranked
	}

	for _, doc := range res.Docs {
		if len(ranked) >= limit+e.cfg.MinTopupBuffer {
			break
		}
		if have[doc.ID] {
			continue
		}
		ranked = append(ranked, models.RankedArticle{Article: doc, Method: "general"})
		have[doc.ID] = true
	}
	return ranked
}

func paginateRanked(ranked []models.RankedArticle, offset, limit int) []models.RankedArticle {
	if offset >= len(ranked) {
		return nil
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end]
}

// writeBack stores the pre-filter ranked list under ns (spec.md §4.3 step
// 7) — callers pass the post-rank, post-topup list before any
// ReadHistory filtering, so a later cache hit can re-filter against
// whatever the user has read since.
func (e *Engine) writeBack(ctx context.Context, ns cache.Namespace, userID string, params []string, ranked []models.RankedArticle, total int, version string) {
	now := time.Now()
	env := models.Envelope{Results: ranked, Timestamp: now, Method: "personalized", Version: version}
	sidecar := models.Sidecar{TotalCount: total, Timestamp: now, Method: "personalized", LastUpdated: now}
	if err := e.cache.Put(ctx, ns, userID, params, env, sidecar, 0); err != nil {
		e.logger.Warn("personalization cache write-back failed", map[string]interface{}{"userId": userID, "namespace": string(ns), "error": err.Error()})
	}
}

// InvalidateUser drops every cached personalized feed/search entry for
// userID, called when preferences change (spec.md §4.3's update cascade).
func (e *Engine) InvalidateUser(ctx context.Context, userID string) error {
	if _, err := e.cache.InvalidatePattern(ctx, string(cache.NamespacePersonalized)+":"+userID+"*"); err != nil {
		return err
	}
	_, err := e.cache.InvalidatePattern(ctx, string(cache.NamespacePersonalizedSearch)+":"+userID+"*")
	return err
}
