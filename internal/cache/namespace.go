// Package cache implements CacheLayer: namespaced read-through/write-through
// caching with sidecar metadata, hit/miss statistics, an LRU sorted set per
// namespace, and the admin invalidation operations of spec.md §4.4,
// grounded on pkg/cache/redis_cache.go (Redis wrapper shape) and
// internal/cache/multilevel_cache.go (L1 hashicorp/golang-lru + L2 Redis
// tiering).
package cache

import "time"

// Namespace is one of the cache namespaces in spec.md §4.4's table.
type Namespace string

const (
	NamespaceNews               Namespace = "news"
	NamespaceAllArticles        Namespace = "all_articles"
	NamespaceSimilar            Namespace = "similar"
	NamespaceSimilarMeta        Namespace = "similar_meta"
	NamespaceSimilarLRU         Namespace = "similar_lru"
	NamespaceSimilarBloom       Namespace = "similar_bloom"
	NamespaceSimilarStats       Namespace = "similar_stats"
	NamespacePersonalized       Namespace = "personalized_simple"
	NamespacePersonalizedSearch Namespace = "personalized_search_simple"
	NamespacePersonalizedStats  Namespace = "personalized_stats_simple"
	NamespacePrefsVersion       Namespace = "prefs_version_simple"
	NamespaceReadRecord         Namespace = "user_read"
	NamespaceReadSet            Namespace = "user_read_set"
	NamespaceArticleViews       Namespace = "article_views"
	NamespaceUniqueViews        Namespace = "article_unique_views"
	NamespaceUserViews          Namespace = "article_user_views"
	NamespaceUserArticleViews   Namespace = "user_article_views"
	NamespaceDailyViews         Namespace = "article_daily_views"
	NamespaceEngagement         Namespace = "article_engagement"
	NamespaceLastViewed         Namespace = "article_last_viewed"
	NamespaceTemp               Namespace = "temp"
)

// TTLs holds the effective TTL configured per namespace; the cache.Layer
// passes each write its namespace's TTL rather than hard-coding it.
type TTLs struct {
	AllArticles        time.Duration
	Similar            time.Duration
	SimilarLRU         time.Duration
	SimilarBloom       time.Duration
	SimilarStats       time.Duration
	Personalized       time.Duration
	PersonalizedSearch time.Duration
	PrefsVersion       time.Duration
	ReadHistory        time.Duration
	DailyViews         time.Duration
	Engagement         time.Duration
}

// TTLFor returns the configured TTL for ns, or 0 (no expiry) for the
// authoritative/"infinite" namespaces listed in spec.md §4.4.
func (t TTLs) TTLFor(ns Namespace) time.Duration {
	switch ns {
	case NamespaceAllArticles:
		return t.AllArticles
	case NamespaceSimilar, NamespaceSimilarMeta:
		return t.Similar
	case NamespaceSimilarLRU:
		return t.SimilarLRU
	case NamespaceSimilarBloom:
		return t.SimilarBloom
	case NamespaceSimilarStats:
		return t.SimilarStats
	case NamespacePersonalized:
		return t.Personalized
	case NamespacePersonalizedSearch:
		return t.PersonalizedSearch
	case NamespacePrefsVersion:
		if t.PrefsVersion < t.Personalized {
			return t.Personalized
		}
		return t.PrefsVersion
	case NamespaceReadRecord, NamespaceReadSet:
		return t.ReadHistory
	case NamespaceDailyViews:
		return t.DailyViews
	case NamespaceEngagement:
		return t.Engagement
	default:
		return 0 // news, article_views, unique_views, user_views: infinite
	}
}
