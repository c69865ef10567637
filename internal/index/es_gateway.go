package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

// ESGateway implements Gateway against Elasticsearch: documents are stored
// as-is, the vector field uses dense_vector with the configured dimension
// and similarity metric, and text/tag/knn queries are composed against a
// single combined mapping, matching IndexGateway's "hides query-language
// quirks" responsibility (spec.md §4.1).
type ESGateway struct {
	client    *elasticsearch.Client
	indexName string
	vectorDim int
}

// NewESGateway builds a client against addresses, targeting indexName.
func NewESGateway(addresses []string, indexName string) (*ESGateway, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, apperrors.IndexUnavailable("new_client", err)
	}
	return &ESGateway{client: client, indexName: indexName}, nil
}

func (g *ESGateway) GetDoc(ctx context.Context, id string) (*models.Article, error) {
	req := esapi.GetRequest{Index: g.indexName, DocumentID: id}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return nil, apperrors.IndexUnavailable("get_doc", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, apperrors.IndexUnavailable("get_doc", fmt.Errorf("status %d", res.StatusCode))
	}

	var envelope struct {
		Source models.Article `json:"_source"`
		Found  bool            `json:"found"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, apperrors.IndexUnavailable("get_doc_decode", err)
	}
	if !envelope.Found {
		return nil, nil
	}
	return &envelope.Source, nil
}

func (g *ESGateway) PutDoc(ctx context.Context, article *models.Article) error {
	if g.vectorDim > 0 && len(article.Vector) > 0 && len(article.Vector) != g.vectorDim {
		return vectorDimError(g.vectorDim, len(article.Vector))
	}
	body, err := json.Marshal(article)
	if err != nil {
		return apperrors.BadInput("put_doc_marshal", err)
	}
	req := esapi.IndexRequest{
		Index:      g.indexName,
		DocumentID: article.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return apperrors.IndexUnavailable("put_doc", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.IndexUnavailable("put_doc", fmt.Errorf("status %d", res.StatusCode))
	}
	return nil
}

func (g *ESGateway) Exists(ctx context.Context, id string) (bool, error) {
	req := esapi.ExistsRequest{Index: g.indexName, DocumentID: id}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return false, apperrors.IndexUnavailable("exists", err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// buildTextQuery translates ParseQuery's terms into an ES bool query: must
// clauses OR a multi_match across fields (or a term filter for tags), and
// must_not for negated terms.
func buildTextQuery(query string, fields []string, filters Filter) map[string]interface{} {
	boolQuery := map[string]interface{}{}
	var must, mustNot []map[string]interface{}

	for _, term := range ParseQuery(query) {
		var clause map[string]interface{}
		if term.Tag != "" {
			clause = map[string]interface{}{"term": map[string]interface{}{term.Tag + ".keyword": term.Values[0]}}
		} else {
			clause = map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  strings.Join(term.Values, " "),
					"fields": fields,
					"type":   "best_fields",
				},
			}
		}
		if term.Kind == TermMustNot {
			mustNot = append(mustNot, clause)
		} else {
			must = append(must, clause)
		}
	}

	for field, value := range filters {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{field + ".keyword": value}})
	}

	if len(must) == 0 {
		boolQuery["must"] = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	} else {
		boolQuery["must"] = must
	}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}

	return map[string]interface{}{"bool": boolQuery}
}

func (g *ESGateway) TextSearch(ctx context.Context, query string, fields []string, filters Filter, opts SearchOptions) (SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	body := map[string]interface{}{
		"query": buildTextQuery(query, fields, filters),
		"from":  opts.Offset,
		"size":  opts.Limit,
	}
	if opts.SortBy != "" {
		body["sort"] = []map[string]interface{}{{opts.SortBy: map[string]string{"order": "desc"}}}
	}

	docs, total, err := g.runSearch(ctx, body)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Docs: docs, Total: total}, nil
}

func (g *ESGateway) VectorKNN(ctx context.Context, vector []float32, k int, filters Filter, excludeID string) ([]KNNMatch, error) {
	if k <= 0 {
		k = 10
	}
	// spec.md §4.1: return 2k candidates so the caller can threshold.
	candidateCount := 2 * k

	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   vector,
		"k":              candidateCount,
		"num_candidates": candidateCount * 4,
	}
	var filterClauses []map[string]interface{}
	for field, value := range filters {
		filterClauses = append(filterClauses, map[string]interface{}{"term": map[string]interface{}{field + ".keyword": value}})
	}
	if excludeID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{"bool": map[string]interface{}{
			"must_not": []map[string]interface{}{{"term": map[string]interface{}{"_id": excludeID}}},
		}})
	}
	if len(filterClauses) > 0 {
		knn["filter"] = filterClauses
	}

	body := map[string]interface{}{"knn": knn, "size": candidateCount}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.BadInput("vector_knn_marshal", err)
	}

	res, err := g.client.Search(
		g.client.Search.WithContext(ctx),
		g.client.Search.WithIndex(g.indexName),
		g.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, apperrors.IndexUnavailable("vector_knn", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.IndexUnavailable("vector_knn", fmt.Errorf("status %d", res.StatusCode))
	}

	hits, err := decodeHits(res.Body)
	if err != nil {
		return nil, apperrors.IndexUnavailable("vector_knn_decode", err)
	}

	matches := make([]KNNMatch, 0, len(hits.Hits.Hits))
	for _, h := range hits.Hits.Hits {
		if h.ID == excludeID {
			continue
		}
		// Elasticsearch scores cosine kNN hits as (1 + cos) / 2.
		matches = append(matches, KNNMatch{Doc: h.Source, Distance: 2 - 2*h.Score})
	}
	return matches, nil
}

func (g *ESGateway) Aggregate(ctx context.Context, groupBy string) ([]string, error) {
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"distinct": map[string]interface{}{
				"terms": map[string]interface{}{"field": groupBy + ".keyword", "size": 1000},
			},
		},
	}
	payload, _ := json.Marshal(body)

	res, err := g.client.Search(
		g.client.Search.WithContext(ctx),
		g.client.Search.WithIndex(g.indexName),
		g.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, apperrors.IndexUnavailable("aggregate", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.IndexUnavailable("aggregate", fmt.Errorf("status %d", res.StatusCode))
	}

	var decoded struct {
		Aggregations struct {
			Distinct struct {
				Buckets []struct {
					Key string `json:"key"`
				} `json:"buckets"`
			} `json:"distinct"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, apperrors.IndexUnavailable("aggregate_decode", err)
	}

	out := make([]string, 0, len(decoded.Aggregations.Distinct.Buckets))
	for _, b := range decoded.Aggregations.Distinct.Buckets {
		out = append(out, b.Key)
	}
	return out, nil
}

func (g *ESGateway) RecreateIndex(ctx context.Context, schema Schema) error {
	g.vectorDim = schema.VectorDim
	existsReq := esapi.IndicesExistsRequest{Index: []string{g.indexName}}
	existsRes, err := existsReq.Do(ctx, g.client)
	if err != nil {
		return apperrors.IndexUnavailable("recreate_index_check", err)
	}
	existsRes.Body.Close()

	if existsRes.StatusCode == 200 {
		// A pre-existing index is acceptable (spec.md §4.1); callers who
		// need a true schema change must delete it out of band first.
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"vector": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       schema.VectorDim,
					"index":      true,
					"similarity": esSimilarity(schema.DistanceType),
				},
			},
		},
	}
	payload, _ := json.Marshal(mapping)

	createReq := esapi.IndicesCreateRequest{Index: g.indexName, Body: bytes.NewReader(payload)}
	createRes, err := createReq.Do(ctx, g.client)
	if err != nil {
		return apperrors.IndexUnavailable("recreate_index_create", err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return apperrors.IndexUnavailable("recreate_index_create", fmt.Errorf("status %d", createRes.StatusCode))
	}
	return nil
}

func esSimilarity(distanceType string) string {
	if distanceType == "" {
		return "cosine"
	}
	return distanceType
}

type esHit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source models.Article  `json:"_source"`
}

type esHitsEnvelope struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

func decodeHits(body io.Reader) (esHitsEnvelope, error) {
	var out esHitsEnvelope
	err := json.NewDecoder(body).Decode(&out)
	return out, err
}

func (g *ESGateway) runSearch(ctx context.Context, body map[string]interface{}) ([]models.Article, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, apperrors.BadInput("search_marshal", err)
	}
	res, err := g.client.Search(
		g.client.Search.WithContext(ctx),
		g.client.Search.WithIndex(g.indexName),
		g.client.Search.WithBody(bytes.NewReader(payload)),
		g.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, apperrors.IndexUnavailable("search", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, apperrors.IndexUnavailable("search", fmt.Errorf("status %d", res.StatusCode))
	}

	hits, err := decodeHits(res.Body)
	if err != nil {
		return nil, 0, apperrors.IndexUnavailable("search_decode", err)
	}

	docs := make([]models.Article, 0, len(hits.Hits.Hits))
	for _, h := range hits.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, hits.Hits.Total.Value, nil
}
