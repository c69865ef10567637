package cache

import "strings"

// Key builds the persisted key for (namespace, subject, params...), matching
// the literal layout in spec.md §6.2, e.g. Key(NamespaceSimilar, "a1", "3",
// "0") -> "similar:a1:3:0".
func Key(ns Namespace, subject string, params ...string) string {
	parts := append([]string{string(ns), subject}, params...)
	return strings.Join(parts, ":")
}

// SidecarKey builds the metadata sidecar key for a main cache key's
// namespace+subject (no params — the sidecar is per-subject, not
// per-params, per spec.md §3.1's CacheEntry definition).
func SidecarKey(ns Namespace, subject string) string {
	return Key(ns+"_meta", subject)
}

// LRUKey is the namespace's LRU sorted-set key, e.g. "similar_lru".
func LRUKey(ns Namespace) string {
	return string(ns) + "_lru"
}

// StatsKey is the stats hash key for a subject; ns is the stats namespace
// itself, e.g. StatsKey(NamespaceSimilarStats, "a1") -> "similar_stats:a1".
func StatsKey(ns Namespace, subject string) string {
	return Key(ns, subject)
}
