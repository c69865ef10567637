package readhistory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(client, time.Hour), mr
}

func TestMarkReadThenListRead(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, store.MarkRead(ctx, "u1", "a1"))
	require.NoError(t, store.MarkRead(ctx, "u1", "a2"))

	ids, err := store.ListRead(ctx, "u1", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
}

func TestFilterExcludesReadArticles(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, store.MarkRead(ctx, "u1", "a1"))

	kept, err := store.Filter(ctx, "u1", []string{"a1", "a2", "a3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a3"}, kept)
}

func TestFilterWithNoReadHistoryKeepsAll(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	kept, err := store.Filter(ctx, "fresh-user", []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, kept)
}
