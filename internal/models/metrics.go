package models

import "time"

// EngagementEntry is one record in an article's bounded engagement ring
// buffer (spec.md §3.1, cap 1000, TTL 7 days).
type EngagementEntry struct {
	Timestamp time.Time `json:"ts"`
	UserAgent string    `json:"ua"`
	Referrer  string    `json:"referrer"`
	Language  string    `json:"lang"`
	UserID    string    `json:"userId,omitempty"`
}

// ArticleMetrics is the per-article counters snapshot returned by
// MetricsTracker.
type ArticleMetrics struct {
	ArticleID     string    `json:"articleId"`
	TotalViews    int64     `json:"totalViews"`
	UniqueViewers int64     `json:"uniqueViewers"`
	UserViewers   int64     `json:"userViewers"`
	DailyViews    int64     `json:"dailyViews"`
	LastViewed    time.Time `json:"lastViewed"`

	// Grouped breakdowns over the last <=50 engagement entries, populated
	// only by MetricsTracker.Metrics (not by RecordView).
	ByHour     map[string]int64 `json:"byHour,omitempty"`
	ByReferrer map[string]int64 `json:"byReferrer,omitempty"`
	ByLanguage map[string]int64 `json:"byLanguage,omitempty"`
}

// HistoryEntry is a hydrated user-history row (article, title, view time,
// source). MetricsTracker.UserHistory returns bare article IDs, not
// HistoryEntry values.
type HistoryEntry struct {
	ArticleID string    `json:"articleId"`
	Title     string    `json:"title"`
	ViewedAt  time.Time `json:"viewedAt"`
	Source    string    `json:"source"`
}

// TrendingArticle decorates an article with today/yesterday counts and
// growth for MetricsTracker.Trending.
type TrendingArticle struct {
	Article       Article `json:"article"`
	TodayViews    int64   `json:"todayViews"`
	YesterdayViews int64  `json:"yesterdayViews"`
	Growth        float64 `json:"growth"`
}
