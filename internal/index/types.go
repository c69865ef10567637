// Package index implements IndexGateway: a thin, typed wrapper over the
// combined document store + full-text + tag + vector index, grounded on
// pkg/repository/vector/repository.go and pkg/repository/search/repository.go's
// Create/Get/SearchByText/SearchByVector shape, backed by Elasticsearch
// (github.com/elastic/go-elasticsearch/v8, named in the retrieval pack's
// nonomal-WeKnora manifest).
package index

import (
	"context"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

// SearchOptions bounds and orders a TextSearch call.
type SearchOptions struct {
	SortBy string // "publishedAt" (default) or "" for relevance
	Limit  int
	Offset int
}

// SearchResult is TextSearch's return shape.
type SearchResult struct {
	Docs  []models.Article
	Total int
}

// KNNMatch pairs a candidate document with its cosine distance from the
// query vector (distance = 1 - similarity, per spec.md §4.1).
type KNNMatch struct {
	Doc      models.Article
	Distance float64
}

// Similarity converts a KNNMatch's distance back into a similarity score.
func (m KNNMatch) Similarity() float64 { return 1 - m.Distance }

// Filter is a tag-equality filter, e.g. {"sentiment": "positive"} or
// {"source.name": "Reuters"}.
type Filter map[string]string

// Schema pins the index's vector dimension and distance metric; changing
// either requires RecreateIndex (spec.md §4.1).
type Schema struct {
	VectorDim    int
	DistanceType string // "cosine"
}

// Gateway is the abstract contract every other component depends on.
type Gateway interface {
	GetDoc(ctx context.Context, id string) (*models.Article, error)
	PutDoc(ctx context.Context, article *models.Article) error
	Exists(ctx context.Context, id string) (bool, error)

	// TextSearch supports OR-joined per-field terms ("|"), AND via spaces,
	// tag filters ("field:{value}"), and negation (a leading "-" on a
	// term), over fields (spec.md §4.1, §6.1).
	TextSearch(ctx context.Context, query string, fields []string, filters Filter, opts SearchOptions) (SearchResult, error)

	// VectorKNN returns up to 2k candidates (the caller applies a
	// similarity threshold); excludeID is omitted from results.
	VectorKNN(ctx context.Context, vector []float32, k int, filters Filter, excludeID string) ([]KNNMatch, error)

	// Aggregate groups all documents by groupBy and returns distinct
	// values; used for listSources() (spec.md §6, GET /api/metadata/sources).
	Aggregate(ctx context.Context, groupBy string) ([]string, error)

	// RecreateIndex creates the composite index per schema when it does not
	// exist. An existing index is left untouched whether or not its mapping
	// matches schema; it is never dropped.
	RecreateIndex(ctx context.Context, schema Schema) error
}
