package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(client, 30*24*time.Hour, 7*24*time.Hour, observability.NewLogger("test")), mr
}

func TestRecordViewIncrementsTotalAndDaily(t *testing.T) {
	tracker, mr := newTestTracker(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, tracker.RecordView(ctx, "a1", ViewEvent{UserID: "u1", Referrer: "newsletter", Language: "en"}))
	require.NoError(t, tracker.RecordView(ctx, "a1", ViewEvent{UserID: "u2"}))

	m, err := tracker.Metrics(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.TotalViews)
	assert.Equal(t, int64(2), m.UniqueViewers)
	assert.Equal(t, int64(2), m.DailyViews)
}

func TestRecordViewSurvivesMissingUserID(t *testing.T) {
	tracker, mr := newTestTracker(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, tracker.RecordView(ctx, "a1", ViewEvent{}))
	m, err := tracker.Metrics(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.TotalViews)
	assert.Equal(t, int64(0), m.UniqueViewers)
}

func TestUserHistoryReturnsViewedArticles(t *testing.T) {
	tracker, mr := newTestTracker(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, tracker.RecordView(ctx, "a1", ViewEvent{UserID: "u1"}))
	require.NoError(t, tracker.RecordView(ctx, "a2", ViewEvent{UserID: "u1"}))

	ids, err := tracker.UserHistory(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
}

func TestTrendingRanksByGrowth(t *testing.T) {
	tracker, mr := newTestTracker(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, tracker.RecordView(ctx, "hot", ViewEvent{}))
	require.NoError(t, tracker.RecordView(ctx, "hot", ViewEvent{}))
	require.NoError(t, tracker.RecordView(ctx, "cold", ViewEvent{}))

	trending, err := tracker.Trending(ctx, []string{"hot", "cold"})
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, "hot", trending[0].Article.ID)
}
