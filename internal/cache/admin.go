package cache

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// AdminStepResult reports the outcome of clearing a single key pattern,
// part of the per-pattern degrade-on-failure contract in spec.md §4.4.
type AdminStepResult struct {
	Pattern     string `json:"pattern"`
	KeysCleared int    `json:"keysCleared"`
	Error       string `json:"error,omitempty"`
}

// AdminReport is the result of a bulk clear operation, shaped for the
// cache_clear_metrics_{epochMs}.json report the admin CLI writes.
type AdminReport struct {
	Steps       []AdminStepResult `json:"steps"`
	TotalKeys   int               `json:"totalKeysCleared"`
	ElapsedMS   int64             `json:"elapsedMs"`
	Errors      int               `json:"errors"`
}

func runSteps(ctx context.Context, l *Layer, patterns []string) AdminReport {
	start := time.Now()
	report := AdminReport{}
	for _, p := range patterns {
		n, err := l.InvalidatePattern(ctx, p)
		step := AdminStepResult{Pattern: p, KeysCleared: n}
		if err != nil {
			step.Error = err.Error()
			report.Errors++
		}
		report.Steps = append(report.Steps, step)
		report.TotalKeys += n
	}
	report.ElapsedMS = time.Since(start).Milliseconds()
	return report
}

// ClearAllExceptUser clears the fixed list of key patterns below, per
// spec.md §6.3's clear-all-cache-except-user admin operation. No user:* key
// (preferences, generated IDs) is touched; keys outside the list, such as
// the read-history sets and the personalized_simple_meta/_lru keys, are kept.
func (l *Layer) ClearAllExceptUser(ctx context.Context) AdminReport {
	patterns := []string{
		string(NamespaceNews) + ":*",
		string(NamespaceAllArticles) + ":*",
		string(NamespaceSimilar) + ":*",
		string(NamespaceSimilarMeta) + ":*",
		string(NamespaceSimilarLRU),
		string(NamespaceSimilarBloom) + ":*",
		string(NamespaceSimilarStats) + ":*",
		string(NamespacePersonalized) + ":*",
		string(NamespacePersonalizedSearch) + ":*",
		string(NamespacePersonalizedStats) + ":*",
		string(NamespacePrefsVersion) + ":*",
		string(NamespaceArticleViews) + ":*",
		string(NamespaceUniqueViews) + ":*",
		string(NamespaceUserViews) + ":*",
		string(NamespaceDailyViews) + ":*",
		string(NamespaceEngagement) + ":*",
		string(NamespaceLastViewed) + ":*",
		string(NamespaceTemp) + ":*",
	}
	return runSteps(ctx, l, patterns)
}

// cacheTypeAliases maps the admin API's clear-specific-cache-types names
// (spec.md §6.3) onto the namespace key-glob patterns they cover.
var cacheTypeAliases = map[string][]string{
	"articles":            {string(NamespaceNews) + ":*", string(NamespaceAllArticles) + ":*"},
	"article_metrics":     {string(NamespaceArticleViews) + ":*", string(NamespaceUniqueViews) + ":*", string(NamespaceUserViews) + ":*", string(NamespaceDailyViews) + ":*", string(NamespaceEngagement) + ":*", string(NamespaceLastViewed) + ":*"},
	"search":              {string(NamespacePersonalizedSearch) + ":*"},
	"similar_articles":    {string(NamespaceSimilar) + ":*", string(NamespaceSimilarMeta) + ":*", string(NamespaceSimilarLRU), string(NamespaceSimilarBloom) + ":*", string(NamespaceSimilarStats) + ":*"},
	"personalized":        {string(NamespacePersonalized) + ":*", string(NamespacePersonalizedStats) + ":*"},
	"versions":            {string(NamespacePrefsVersion) + ":*"},
	"fallbacks":           {string(NamespaceTemp) + ":fallback:*"},
	"temp":                {string(NamespaceTemp) + ":*"},
	"vectors":             {}, // vectors live in the index, not the cache; nothing to clear here
	"search_index":        {}, // index recreation is IndexGateway's job, not CacheLayer's
}

// ClearSpecificTypes clears only the requested cache type names, degrading
// independently per type (an unrecognized or empty-pattern type simply
// clears nothing rather than failing the whole request).
func (l *Layer) ClearSpecificTypes(ctx context.Context, types []string) AdminReport {
	var patterns []string
	for _, t := range types {
		patterns = append(patterns, cacheTypeAliases[strings.ToLower(t)]...)
	}
	return runSteps(ctx, l, patterns)
}

// NuclearClear wipes every key in the current database and, where the
// caller supplies a dropIndex func, drops every search index too. It
// requires the literal confirmation token "NUCLEAR" per spec.md §6.3 and
// degrades per-step: a failing step (e.g. SCAN or DEL returning an error)
// is recorded as a step error rather than aborting the rest.
func (l *Layer) NuclearClear(ctx context.Context, confirmation string, dropIndex func(context.Context) error) (AdminReport, error) {
	if confirmation != "NUCLEAR" {
		return AdminReport{}, errConfirmationRequired
	}

	start := time.Now()
	report := AdminReport{}

	n, err := l.scanAllAndDelete(ctx)
	step := AdminStepResult{Pattern: "*", KeysCleared: n}
	if err != nil {
		step.Error = err.Error()
		report.Errors++
	}
	report.Steps = append(report.Steps, step)
	report.TotalKeys += n

	if dropIndex != nil {
		if err := dropIndex(ctx); err != nil {
			report.Steps = append(report.Steps, AdminStepResult{Pattern: "search_index", Error: err.Error()})
			report.Errors++
		} else {
			report.Steps = append(report.Steps, AdminStepResult{Pattern: "search_index", KeysCleared: 1})
		}
	}

	report.ElapsedMS = time.Since(start).Milliseconds()
	return report, nil
}

func (l *Layer) scanAllAndDelete(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := l.client.Scan(ctx, cursor, "*", 1000).Result()
		if err != nil {
			return count, err
		}
		if len(keys) > 0 {
			if err := l.client.Del(ctx, keys...).Err(); err != nil && err != redis.Nil {
				return count, err
			}
			count += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	l.l1.Purge()
	return count, nil
}

// ListAndPurge scans every key and deletes those for which filterFn
// returns true, returning the count purged. Used by admin tooling that
// needs a custom predicate beyond the fixed type aliases above.
func (l *Layer) ListAndPurge(ctx context.Context, pattern string, filterFn func(key string) bool) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := l.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return count, err
		}
		var toDelete []string
		for _, k := range keys {
			if filterFn == nil || filterFn(k) {
				toDelete = append(toDelete, k)
			}
		}
		if len(toDelete) > 0 {
			if err := l.client.Del(ctx, toDelete...).Err(); err != nil {
				return count, err
			}
			for _, k := range toDelete {
				l.l1.Remove(k)
			}
			count += len(toDelete)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count, nil
}

var errConfirmationRequired = confirmationError{}

type confirmationError struct{}

func (confirmationError) Error() string {
	return `nuclear clear requires confirmation token "NUCLEAR"`
}
