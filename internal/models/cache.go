package models

import "time"

// RankedArticle is a tagged-variant result produced by similarity or
// personalization ranking: exactly one method applies per result, and the
// score field it's paired with depends on that method.
type RankedArticle struct {
	Article           Article `json:"article"`
	Method            string  `json:"method"` // vector|text|semantic|category|temporal|combined|general
	Similarity        float64 `json:"similarity,omitempty"`
	FinalScore        float64 `json:"finalScore,omitempty"`
	MatchedPreference string  `json:"matchedPreference,omitempty"`
	PreferenceOrder   int     `json:"preferenceOrder,omitempty"`
	KeywordsUsed      bool    `json:"keywordsUsed,omitempty"`
}

// Envelope is the cache payload for a (namespace, subject, params) key:
// the ranked results plus provenance. Sidecar carries the count/refresh
// bookkeeping separately so a probe can fetch both in one round trip.
type Envelope struct {
	Results   []RankedArticle `json:"results"`
	Timestamp time.Time       `json:"timestamp"`
	Method    string          `json:"method"`
	Version   string          `json:"version,omitempty"`
}

// Sidecar is the metadata entry stored alongside an Envelope.
type Sidecar struct {
	TotalCount  int       `json:"totalCount"`
	Timestamp   time.Time `json:"timestamp"`
	Method      string    `json:"method"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// SimilarResult is SimilarityEngine.Similar's return shape.
type SimilarResult struct {
	Articles []RankedArticle `json:"articles"`
	Total    int             `json:"total"`
	Cached   bool            `json:"cached"`
	CacheAge time.Duration   `json:"cacheAge,omitempty"`
	Method   string          `json:"method"`
	Fallback bool            `json:"fallback,omitempty"`
}

// FeedResult is PersonalizationEngine.PersonalizedFeed / PersonalizedSearch's
// return shape.
type FeedResult struct {
	Articles           []RankedArticle `json:"articles"`
	Total              int             `json:"total"`
	PersonalizedCount  int             `json:"personalizedCount"`
	Cached             bool            `json:"cached"`
	FilteredReadCount  int             `json:"filteredReadCount"`
	Fallback           bool            `json:"fallback,omitempty"`
}
