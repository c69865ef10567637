// Package resilience provides the named circuit-breaker registry that
// index.WrapResilient puts around IndexGateway calls, grounded on
// internal/resilience/circuit_breaker.go's named-registry pattern over
// sony/gobreaker, and a retry/backoff helper (Retry). The embedder is not
// wrapped, and no component calls Retry.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig configures a named circuit breaker.
type CircuitBreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// Named breaker keys for IndexGateway's two traffic classes: reads have a
// fallback path (SimilarityEngine's rank-fusion blend) and can absorb more
// failures before tripping; writes/admin ops have no fallback, so they
// trip sooner to stop piling retries onto a failing index.
const (
	BreakerIndexRead  = "index-read"
	BreakerIndexWrite = "index-write"
)

var breakerPresets = map[string]CircuitBreakerConfig{
	BreakerIndexRead: {
		Name:         BreakerIndexRead,
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		FailureRatio: 0.6,
	},
	BreakerIndexWrite: {
		Name:         BreakerIndexWrite,
		MaxRequests:  3,
		Interval:     30 * time.Second,
		Timeout:      90 * time.Second,
		FailureRatio: 0.3,
	},
}

// DefaultConfig returns the preset CircuitBreakerConfig for a named
// breaker, or a generic default if name isn't one of the presets.
func DefaultConfig(name string) CircuitBreakerConfig {
	if cfg, ok := breakerPresets[name]; ok {
		return cfg
	}
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		FailureRatio: 0.5,
	}
}

var (
	breakersMu sync.Mutex
	breakers   = make(map[string]*gobreaker.CircuitBreaker)
)

// GetCircuitBreaker returns the named circuit breaker, creating it with cfg
// on first use. Subsequent calls with the same name ignore cfg and return
// the existing breaker, matching the teacher's registry semantics.
func GetCircuitBreaker(name string, cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	breakersMu.Lock()
	defer breakersMu.Unlock()

	if cb, ok := breakers[name]; ok {
		return cb
	}

	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 5
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	breakers[name] = cb
	return cb
}

// Call runs fn through the named circuit breaker. A tripped breaker returns
// gobreaker.ErrOpenState without invoking fn, which callers treat the same
// as an IndexUnavailable/StoreUnavailable transport failure (spec.md §7).
func Call[T any](ctx context.Context, name string, cfg CircuitBreakerConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cb := GetCircuitBreaker(name, cfg)
	result, err := cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	var zero T
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// resetForTest clears the registry so the next GetCircuitBreaker call for a
// name builds a fresh breaker. Nothing in the module calls it.
func resetForTest() {
	breakersMu.Lock()
	defer breakersMu.Unlock()
	breakers = make(map[string]*gobreaker.CircuitBreaker)
}
