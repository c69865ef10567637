// Package embedding abstracts the two LLM-backed capabilities the core
// invokes — embed(text) and summarizeAndAnalyze(title, body) — per spec.md
// §1: the actual network calls live in the (out-of-scope) ingestion
// pipeline. This package only defines the interface and a deterministic
// mock, grounded on pkg/embedding/providers/provider_interface.go's
// Provider shape and mock_provider.go's failure-injection idiom.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync"
	"time"
)

// Analysis is summarizeAndAnalyze's result shape.
type Analysis struct {
	Summary   string
	Sentiment string
	Keywords  []string
}

// Provider is the abstract capability set SimilarityEngine and
// PersonalizationEngine depend on.
type Provider interface {
	// Embed returns a fixed-dimension vector for text. Degrades to
	// ErrEmbedUnavailable when the provider cannot serve a request, which
	// callers treat as a signal to fall back to non-vector strategies.
	Embed(ctx context.Context, text string) ([]float32, error)

	// SummarizeAndAnalyze is the ingestion-time capability; present here so
	// components that need it (none in the serving path) share the same
	// interface, per spec.md §1.
	SummarizeAndAnalyze(ctx context.Context, title, body string) (Analysis, error)

	// Dimension reports the vector length Embed produces.
	Dimension() int
}

// ErrEmbedUnavailable is returned by Embed when the provider is down or
// throttled; SimilarityEngine and PersonalizationEngine both treat it as a
// trigger for their respective fallback paths.
var ErrEmbedUnavailable = errors.New("embedding provider unavailable")

// DeterministicMock is a dependency-free Provider used by default and by
// tests: it hashes text into a unit vector so that identical inputs always
// produce identical, comparable vectors without a real model call.
type DeterministicMock struct {
	mu          sync.RWMutex
	dim         int
	failureRate float64
	latency     time.Duration
	calls       int
	failAfter   int
}

// NewDeterministicMock returns a mock embedder producing vectors of
// dimension dim (0 defaults to 768, matching the configured default in
// SPEC_FULL.md §9's Open-Question resolution).
func NewDeterministicMock(dim int) *DeterministicMock {
	if dim <= 0 {
		dim = 768
	}
	return &DeterministicMock{dim: dim, failAfter: -1}
}

// WithFailAfter causes Embed to return ErrEmbedUnavailable after n calls,
// for exercising the fallback paths in tests.
func (m *DeterministicMock) WithFailAfter(n int) *DeterministicMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

func (m *DeterministicMock) Dimension() int { return m.dim }

func (m *DeterministicMock) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	calls := m.calls
	failAfter := m.failAfter
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failAfter >= 0 && calls > failAfter {
		return nil, ErrEmbedUnavailable
	}

	return hashToVector(text, m.dim), nil
}

func (m *DeterministicMock) SummarizeAndAnalyze(ctx context.Context, title, body string) (Analysis, error) {
	words := strings.Fields(strings.ToLower(title + " " + body))
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range words {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) < 4 || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) >= 5 {
			break
		}
	}
	summary := title
	if len(body) > 200 {
		summary = title + ": " + body[:200] + "..."
	} else if body != "" {
		summary = title + ": " + body
	}
	return Analysis{Summary: summary, Sentiment: "neutral", Keywords: keywords}, nil
}

// hashToVector deterministically expands a SHA-256 hash of text into a
// dim-length unit vector, so cosine similarity between two texts' vectors
// reflects (crudely) their hash-space distance — good enough for tests and
// for local development without a real embedding model.
func hashToVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))
	state := binary.BigEndian.Uint64(seed[:8])
	for i := 0; i < dim; i++ {
		state = state*6364136223846793005 + 1442695040888963407
		v := float32(int64(state>>32)) / float32(math.MaxInt32)
		vec[i] = v
	}
	normalize(vec)
	return vec
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
