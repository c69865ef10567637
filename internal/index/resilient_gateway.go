package index

import (
	"context"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/resilience"
)

// ResilientGateway wraps a Gateway with a circuit breaker per spec.md §5's
// "every outbound index/embedder call goes through the breaker" rule,
// grounded on internal/resilience/circuit_breaker.go's named-registry.
// Reads and writes/admin ops go through separate named breakers
// (resilience.BreakerIndexRead / BreakerIndexWrite): reads have
// SimilarityEngine's fallback blend to degrade into, so they tolerate a
// higher failure ratio before tripping; writes and index-recreation have
// no fallback and trip sooner.
type ResilientGateway struct {
	inner    Gateway
	readCfg  resilience.CircuitBreakerConfig
	writeCfg resilience.CircuitBreakerConfig
}

// WrapResilient decorates gw with the read/write breaker pair.
func WrapResilient(gw Gateway) Gateway {
	return &ResilientGateway{
		inner:    gw,
		readCfg:  resilience.DefaultConfig(resilience.BreakerIndexRead),
		writeCfg: resilience.DefaultConfig(resilience.BreakerIndexWrite),
	}
}

func (g *ResilientGateway) GetDoc(ctx context.Context, id string) (*models.Article, error) {
	return resilience.Call(ctx, resilience.BreakerIndexRead, g.readCfg, func(ctx context.Context) (*models.Article, error) {
		return g.inner.GetDoc(ctx, id)
	})
}

func (g *ResilientGateway) PutDoc(ctx context.Context, article *models.Article) error {
	_, err := resilience.Call(ctx, resilience.BreakerIndexWrite, g.writeCfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.PutDoc(ctx, article)
	})
	return err
}

func (g *ResilientGateway) Exists(ctx context.Context, id string) (bool, error) {
	return resilience.Call(ctx, resilience.BreakerIndexRead, g.readCfg, func(ctx context.Context) (bool, error) {
		return g.inner.Exists(ctx, id)
	})
}

func (g *ResilientGateway) TextSearch(ctx context.Context, query string, fields []string, filters Filter, opts SearchOptions) (SearchResult, error) {
	return resilience.Call(ctx, resilience.BreakerIndexRead, g.readCfg, func(ctx context.Context) (SearchResult, error) {
		return g.inner.TextSearch(ctx, query, fields, filters, opts)
	})
}

func (g *ResilientGateway) VectorKNN(ctx context.Context, vector []float32, k int, filters Filter, excludeID string) ([]KNNMatch, error) {
	return resilience.Call(ctx, resilience.BreakerIndexRead, g.readCfg, func(ctx context.Context) ([]KNNMatch, error) {
		return g.inner.VectorKNN(ctx, vector, k, filters, excludeID)
	})
}

func (g *ResilientGateway) Aggregate(ctx context.Context, groupBy string) ([]string, error) {
	return resilience.Call(ctx, resilience.BreakerIndexRead, g.readCfg, func(ctx context.Context) ([]string, error) {
		return g.inner.Aggregate(ctx, groupBy)
	})
}

func (g *ResilientGateway) RecreateIndex(ctx context.Context, schema Schema) error {
	_, err := resilience.Call(ctx, resilience.BreakerIndexWrite, g.writeCfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.RecreateIndex(ctx, schema)
	})
	return err
}
