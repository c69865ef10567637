// Package metrics implements MetricsTracker: per-article view accounting,
// unique-viewer sets, engagement breakdowns, and trending computation,
// grounded on pkg/repository/redis/counters.go's INCR/HINCRBY/pipeline
// idiom.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
)

const engagementRingSize = 1000

// Tracker is MetricsTracker.
type Tracker struct {
	client     *redis.Client
	logger     *observability.Logger
	dailyTTL   time.Duration
	engageTTL  time.Duration
}

func New(client *redis.Client, dailyTTL, engageTTL time.Duration, logger *observability.Logger) *Tracker {
	return &Tracker{client: client, logger: logger, dailyTTL: dailyTTL, engageTTL: engageTTL}
}

func totalViewsKey(articleID string) string { return "article_views:" + articleID }
func uniqueViewsKey(articleID string) string { return "article_unique_views:" + articleID }
func userViewsKey(articleID string) string   { return "article_user_views:" + articleID }
func userArticleKey(userID string) string    { return "user_article_views:" + userID }
func dailyViewsKey(articleID, day string) string {
	return "article_daily_views:" + articleID + ":" + day
}
func engagementKey(articleID string) string { return "article_engagement:" + articleID }
func lastViewedKey(articleID string) string { return "article_last_viewed:" + articleID }

// ViewEvent is RecordView's input.
type ViewEvent struct {
	UserID    string
	UserAgent string
	Referrer  string
	Language  string
}

// RecordView increments the synchronous view counters (total + today's
// daily bucket) and best-effort-pipelines the rest (unique viewer set,
// per-user set, engagement ring buffer, last-viewed timestamp), per
// spec.md §4.5 step ordering: synchronous counters must never be lost to a
// best-effort batch failure.
func (t *Tracker) RecordView(ctx context.Context, articleID string, evt ViewEvent) error {
	today := time.Now().UTC().Format("2006-01-02")

	if err := t.client.Incr(ctx, totalViewsKey(articleID)).Err(); err != nil {
		return apperrors.StoreUnavailable("record_view_total", err)
	}
	dayKey := dailyViewsKey(articleID, today)
	pipe := t.client.Pipeline()
	pipe.Incr(ctx, dayKey)
	if t.dailyTTL > 0 {
		pipe.Expire(ctx, dayKey, t.dailyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.StoreUnavailable("record_view_daily", err)
	}

	t.recordBestEffort(ctx, articleID, evt)
	return nil
}

func (t *Tracker) recordBestEffort(ctx context.Context, articleID string, evt ViewEvent) {
	pipe := t.client.Pipeline()
	if evt.UserID != "" {
		pipe.SAdd(ctx, uniqueViewsKey(articleID), evt.UserID)
		pipe.SAdd(ctx, userViewsKey(articleID), evt.UserID)
		pipe.SAdd(ctx, userArticleKey(evt.UserID), articleID)
	}

	entry := models.EngagementEntry{
		Timestamp: time.Now(),
		UserAgent: evt.UserAgent,
		Referrer:  evt.Referrer,
		Language:  evt.Language,
		UserID:    evt.UserID,
	}
	if data, err := json.Marshal(entry); err == nil {
		key := engagementKey(articleID)
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, engagementRingSize-1)
		if t.engageTTL > 0 {
			pipe.Expire(ctx, key, t.engageTTL)
		}
	}

	pipe.Set(ctx, lastViewedKey(articleID), time.Now().Format(time.RFC3339), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("best-effort view accounting failed", map[string]interface{}{"articleId": articleID, "error": err.Error()})
	}
}

// Metrics returns the aggregate view stats for articleID, including
// hour/referrer/language breakdowns computed over the most recent 50
// engagement entries (spec.md §4.5).
func (t *Tracker) Metrics(ctx context.Context, articleID string) (models.ArticleMetrics, error) {
	total, err := t.client.Get(ctx, totalViewsKey(articleID)).Int64()
	if err != nil && err != redis.Nil {
		return models.ArticleMetrics{}, apperrors.StoreUnavailable("metrics_total", err)
	}
	unique, err := t.client.SCard(ctx, uniqueViewsKey(articleID)).Result()
	if err != nil && err != redis.Nil {
		return models.ArticleMetrics{}, apperrors.StoreUnavailable("metrics_unique", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	daily, _ := t.client.Get(ctx, dailyViewsKey(articleID, today)).Int64()

	var lastViewed time.Time
	if s, err := t.client.Get(ctx, lastViewedKey(articleID)).Result(); err == nil {
		lastViewed, _ = time.Parse(time.RFC3339, s)
	}

	entries := t.recentEngagement(ctx, articleID, 50)
	byHour := make(map[string]int64)
	byReferrer := make(map[string]int64)
	byLanguage := make(map[string]int64)
	for _, e := range entries {
		byHour[fmt.Sprintf("%02d", e.Timestamp.Hour())]++
		if e.Referrer != "" {
			byReferrer[e.Referrer]++
		}
		if e.Language != "" {
			byLanguage[e.Language]++
		}
	}

	userViewers, err := t.client.SCard(ctx, userViewsKey(articleID)).Result()
	if err != nil && err != redis.Nil {
		return models.ArticleMetrics{}, apperrors.StoreUnavailable("metrics_user_viewers", err)
	}

	return models.ArticleMetrics{
		ArticleID:     articleID,
		TotalViews:    total,
		UniqueViewers: unique,
		UserViewers:   userViewers,
		DailyViews:    daily,
		LastViewed:    lastViewed,
		ByHour:        byHour,
		ByReferrer:    byReferrer,
		ByLanguage:    byLanguage,
	}, nil
}

func (t *Tracker) recentEngagement(ctx context.Context, articleID string, n int) []models.EngagementEntry {
	raw, err := t.client.LRange(ctx, engagementKey(articleID), 0, int64(n-1)).Result()
	if err != nil {
		return nil
	}
	out := make([]models.EngagementEntry, 0, len(raw))
	for _, r := range raw {
		var e models.EngagementEntry
		if json.Unmarshal([]byte(r), &e) == nil {
			out = append(out, e)
		}
	}
	return out
}

// UserHistory returns the IDs of the articles a user has viewed, in no
// defined order and without titles or view times, grounded on
// user_article_views membership rather than ReadHistory's time-ordered
// set (metrics and read-filtering are deliberately independent stores).
func (t *Tracker) UserHistory(ctx context.Context, userID string) ([]string, error) {
	ids, err := t.client.SMembers(ctx, userArticleKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return nil, apperrors.StoreUnavailable("user_history", err)
	}
	return ids, nil
}

// Trending ranks articleIDs by (todayViews - yesterdayViews)/max(yesterdayViews, 1)
// growth, descending, per spec.md §4.5's trending endpoint.
func (t *Tracker) Trending(ctx context.Context, articleIDs []string) ([]models.TrendingArticle, error) {
	today := time.Now().UTC().Format("2006-01-02")
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	out := make([]models.TrendingArticle, 0, len(articleIDs))
	for _, id := range articleIDs {
		todayViews, _ := t.client.Get(ctx, dailyViewsKey(id, today)).Int64()
		yesterdayViews, _ := t.client.Get(ctx, dailyViewsKey(id, yesterday)).Int64()

		base := yesterdayViews
		if base < 1 {
			base = 1
		}
		growth := float64(todayViews-yesterdayViews) / float64(base)

		out = append(out, models.TrendingArticle{
			TodayViews:     todayViews,
			YesterdayViews: yesterdayViews,
			Growth:         growth,
		})
		out[len(out)-1].Article.ID = id
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Growth > out[j].Growth })
	return out, nil
}
