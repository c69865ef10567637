package bloom

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilter(t *testing.T) (*Filter, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(client, "test_filter", 1000, 0.01), mr
}

func TestFilterNeverFalseNegative(t *testing.T) {
	f, mr := newTestFilter(t)
	defer mr.Close()
	ctx := context.Background()

	members := []string{"a1", "a2", "a3", "a4"}
	for _, m := range members {
		require.NoError(t, f.Add(ctx, m))
	}
	for _, m := range members {
		ok, err := f.Test(ctx, m)
		require.NoError(t, err)
		assert.True(t, ok, "added member must test positive")
	}
}

func TestFilterUnseenMemberUsuallyAbsent(t *testing.T) {
	f, mr := newTestFilter(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, f.Add(ctx, "seen"))
	ok, err := f.Test(ctx, "never-added")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpireSetsTTL(t *testing.T) {
	f, mr := newTestFilter(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, f.Add(ctx, "a1"))
	require.NoError(t, f.Expire(ctx, 3600))
	assert.Equal(t, time.Hour, mr.TTL("test_filter"))
}
