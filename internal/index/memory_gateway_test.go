package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

func TestPutDocRejectsWrongVectorDimension(t *testing.T) {
	gw := NewMemoryGateway()
	require.NoError(t, gw.RecreateIndex(context.Background(), Schema{VectorDim: 4}))

	err := gw.PutDoc(context.Background(), &models.Article{ID: "a1", Vector: make([]float32, 3)})
	assert.Error(t, err)
}

func TestTextSearchMatchesAndSorts(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)
	recent := time.Now()

	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a1", Title: "ai breakthrough", PublishedAt: old}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a2", Title: "ai chips advance", PublishedAt: recent}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a3", Title: "cooking tips", PublishedAt: recent}))

	res, err := gw.TextSearch(ctx, "ai", []string{"title"}, nil, SearchOptions{SortBy: "publishedAt", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Docs, 2)
	assert.Equal(t, "a2", res.Docs[0].ID)
}

func TestTextSearchNegationExcludes(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a1", Title: "ai crypto bubble"}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a2", Title: "ai robotics advance"}))

	res, err := gw.TextSearch(ctx, "ai -crypto", []string{"title"}, nil, SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, "a2", res.Docs[0].ID)
}

func TestVectorKNNExcludesSelfAndOrdersByDistance(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "target", Vector: []float32{1, 0}}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "close", Vector: []float32{0.99, 0.01}}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "far", Vector: []float32{0, 1}}))

	matches, err := gw.VectorKNN(ctx, []float32{1, 0}, 5, nil, "target")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "close", matches[0].Doc.ID)
	for _, m := range matches {
		assert.NotEqual(t, "target", m.Doc.ID)
	}
}

func TestAggregateReturnsDistinctValues(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a1", Source: models.Source{Name: "Reuters"}}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a2", Source: models.Source{Name: "Reuters"}}))
	require.NoError(t, gw.PutDoc(ctx, &models.Article{ID: "a3", Source: models.Source{Name: "AP"}}))

	sources, err := gw.Aggregate(ctx, "source.name")
	require.NoError(t, err)
	assert.Equal(t, []string{"AP", "Reuters"}, sources)
}
