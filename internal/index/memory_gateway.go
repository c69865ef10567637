package index

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

// MemoryGateway is an in-process Gateway used by tests and local
// development without a live Elasticsearch cluster. It implements the same
// query language (ParseQuery) and cosine-distance semantics as ESGateway so
// tests exercise real dispatch logic, not a stub.
type MemoryGateway struct {
	mu     sync.RWMutex
	docs   map[string]models.Article
	schema Schema
}

// NewMemoryGateway returns an empty gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{docs: make(map[string]models.Article)}
}

func (g *MemoryGateway) GetDoc(ctx context.Context, id string) (*models.Article, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	a, ok := g.docs[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (g *MemoryGateway) PutDoc(ctx context.Context, article *models.Article) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.schema.VectorDim > 0 && len(article.Vector) > 0 && len(article.Vector) != g.schema.VectorDim {
		return vectorDimError(g.schema.VectorDim, len(article.Vector))
	}
	g.docs[article.ID] = *article
	return nil
}

func (g *MemoryGateway) Exists(ctx context.Context, id string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.docs[id]
	return ok, nil
}

func (g *MemoryGateway) Aggregate(ctx context.Context, groupBy string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, a := range g.docs {
		var v string
		switch groupBy {
		case "source.name":
			v = a.Source.Name
		case "sentiment":
			v = string(a.Sentiment)
		default:
			continue
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (g *MemoryGateway) RecreateIndex(ctx context.Context, schema Schema) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.schema = schema
	return nil
}

func (g *MemoryGateway) TextSearch(ctx context.Context, query string, fields []string, filters Filter, opts SearchOptions) (SearchResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	terms := ParseQuery(query)
	var matched []models.Article
	for _, a := range g.docs {
		if matchesTerms(a, terms, fields) && matchesFilters(a, filters) {
			matched = append(matched, a)
		}
	}

	if opts.SortBy == "publishedAt" || opts.SortBy == "" {
		sort.Slice(matched, func(i, j int) bool {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		})
	}

	total := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return SearchResult{Docs: matched[start:end], Total: total}, nil
}

func (g *MemoryGateway) VectorKNN(ctx context.Context, vector []float32, k int, filters Filter, excludeID string) ([]KNNMatch, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if k <= 0 {
		k = 10
	}
	candidateCount := 2 * k

	var matches []KNNMatch
	for id, a := range g.docs {
		if id == excludeID || len(a.Vector) == 0 {
			continue
		}
		if !matchesFilters(a, filters) {
			continue
		}
		dist := cosineDistance(vector, a.Vector)
		matches = append(matches, KNNMatch{Doc: a, Distance: dist})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > candidateCount {
		matches = matches[:candidateCount]
	}
	return matches, nil
}

func matchesFilters(a models.Article, filters Filter) bool {
	for field, value := range filters {
		switch field {
		case "sentiment":
			if string(a.Sentiment) != value {
				return false
			}
		case "source.name":
			if a.Source.Name != value {
				return false
			}
		case "keywords":
			found := false
			for _, k := range a.Keywords {
				if strings.EqualFold(k, value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func matchesTerms(a models.Article, terms []Term, fields []string) bool {
	haystack := fieldText(a, fields)
	for _, t := range terms {
		if t.Tag != "" {
			var v string
			var hit bool
			switch t.Tag {
			case "sentiment":
				v = string(a.Sentiment)
				hit = strings.EqualFold(v, t.Values[0])
			case "source.name":
				v = a.Source.Name
				hit = strings.EqualFold(v, t.Values[0])
			case "keywords":
				for _, k := range a.Keywords {
					if strings.EqualFold(k, t.Values[0]) {
						hit = true
						break
					}
				}
			}
			if t.Kind == TermMustNot && hit {
				return false
			}
			if t.Kind == TermMust && !hit {
				return false
			}
			continue
		}

		anyMatch := false
		for _, val := range t.Values {
			if strings.Contains(strings.ToLower(haystack), strings.ToLower(val)) {
				anyMatch = true
				break
			}
		}
		if t.Kind == TermMustNot && anyMatch {
			return false
		}
		if t.Kind == TermMust && !anyMatch {
			return false
		}
	}
	return true
}

func fieldText(a models.Article, fields []string) string {
	var parts []string
	for _, f := range fields {
		switch f {
		case "title":
			parts = append(parts, a.Title)
		case "description":
			parts = append(parts, a.Description)
		case "content":
			parts = append(parts, a.Content)
		case "summary":
			parts = append(parts, a.Summary)
		case "keywords":
			parts = append(parts, strings.Join(a.Keywords, " "))
		}
	}
	return strings.Join(parts, " ")
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - sim
}
