package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

func TestClearAllExceptUserPreservesUserNamespace(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, layer.Put(ctx, NamespaceSimilar, "a1", nil, models.Envelope{}, models.Sidecar{}, 10))
	require.NoError(t, layer.client.Set(ctx, "user:u1:preferences", `{"userId":"u1"}`, 0).Err())

	report := layer.ClearAllExceptUser(ctx)
	assert.Greater(t, report.TotalKeys, 0)

	_, err := layer.client.Get(ctx, "user:u1:preferences").Result()
	assert.NoError(t, err, "user namespace must survive clear-all-except-user")

	_, _, hit, err := layer.Probe(ctx, NamespaceSimilar, "a1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestClearSpecificTypesOnlyClearsRequested(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, layer.Put(ctx, NamespaceSimilar, "a1", nil, models.Envelope{}, models.Sidecar{}, 10))
	require.NoError(t, layer.client.Set(ctx, "prefs_version_simple:u1", "v1", 0).Err())

	report := layer.ClearSpecificTypes(ctx, []string{"similar_articles"})
	assert.Greater(t, report.TotalKeys, 0)

	_, err := layer.client.Get(ctx, "prefs_version_simple:u1").Result()
	assert.NoError(t, err, "clearing similar_articles must not touch the versions namespace")
}

func TestNuclearClearRequiresConfirmationToken(t *testing.T) {
	layer, mr := newTestLayer(t)
	defer mr.Close()
	ctx := context.Background()

	_, err := layer.NuclearClear(ctx, "please", nil)
	assert.Error(t, err)

	_, err = layer.NuclearClear(ctx, "NUCLEAR", nil)
	assert.NoError(t, err)
}
