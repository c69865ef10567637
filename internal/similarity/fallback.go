package similarity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

var fallbackTextFields = []string{"title", "description", "content", "summary", "keywords"}

// fallbackBlend runs the four independent strategies concurrently — text,
// semantic, category, temporal — and combines their scores via weighted
// rank fusion (spec.md §4.2's fallback weights: 0.4/0.3/0.2/0.1). A
// strategy that errors contributes nothing rather than aborting the blend,
// so a single broken dependency degrades ranking quality instead of
// failing the whole request.
func (e *Engine) fallbackBlend(ctx context.Context, target *models.Article, searchText string, limit int) (models.SimilarResult, error) {
	type strategyResult struct {
		name    string
		weight  float64
		matches []models.RankedArticle
	}

	strategies := []struct {
		name   string
		weight float64
		run    func(context.Context) []models.RankedArticle
	}{
		{"text", e.cfg.TextWeight, func(ctx context.Context) []models.RankedArticle { return e.textStrategy(ctx, target, limit) }},
		{"semantic", e.cfg.SemanticWeight, func(ctx context.Context) []models.RankedArticle { return e.semanticStrategy(ctx, target, limit) }},
		{"category", e.cfg.CategoryWeight, func(ctx context.Context) []models.RankedArticle { return e.categoryStrategy(ctx, target, limit) }},
		{"temporal", e.cfg.TemporalWeight, func(ctx context.Context) []models.RankedArticle { return e.temporalStrategy(ctx, target, limit) }},
	}

	results := make([]strategyResult, len(strategies))
	var wg sync.WaitGroup
	for i, s := range strategies {
		wg.Add(1)
		go func(i int, name string, weight float64, run func(context.Context) []models.RankedArticle) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("similarity strategy panicked", map[string]interface{}{"strategy": name, "panic": r})
				}
			}()
			results[i] = strategyResult{name: name, weight: weight, matches: run(ctx)}
		}(i, s.name, s.weight, s.run)
	}
	wg.Wait()

	fused := fuseRanks(results[0].matches, results[0].weight,
		results[1].matches, results[1].weight,
		results[2].matches, results[2].weight,
		results[3].matches, results[3].weight)

	return models.SimilarResult{Articles: fused, Method: "combined"}, nil
}

// fuseRanks combines four scored strategy outputs via weighted rank
// fusion: each article's final score is the sum, over every strategy it
// appears in, of that strategy's weight times the score that strategy gave
// it (used as is, not re-normalized across the strategy's result list).
func fuseRanks(textM []models.RankedArticle, textW float64,
	semM []models.RankedArticle, semW float64,
	catM []models.RankedArticle, catW float64,
	tempM []models.RankedArticle, tempW float64) []models.RankedArticle {

	scores := make(map[string]float64)
	byID := make(map[string]models.Article)
	matchedMethods := make(map[string][]string)

	apply := func(matches []models.RankedArticle, weight float64) {
		for _, m := range matches {
			scores[m.Article.ID] += weight * m.Similarity
			byID[m.Article.ID] = m.Article
			matchedMethods[m.Article.ID] = append(matchedMethods[m.Article.ID], m.Method)
		}
	}
	apply(textM, textW)
	apply(semM, semW)
	apply(catM, catW)
	apply(tempM, tempW)

	out := make([]models.RankedArticle, 0, len(scores))
	for id, score := range scores {
		out = append(out, models.RankedArticle{
			Article:    byID[id],
			Method:     "combined",
			FinalScore: score,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out
}

// textStrategy expands the target's title/summary/description into
// stop-word-filtered unigrams and bigrams (P7), retrieves candidates with a
// broad OR-of-unigrams TextSearch, and scores each by how many of the full
// ngram set it contains — this is the strategy the fallback leans on when
// embedding is down, so it must never touch the embedder or VectorKNN.
func (e *Engine) textStrategy(ctx context.Context, target *models.Article, limit int) []models.RankedArticle {
	source := strings.Join([]string{target.Title, target.Summary, target.Description}, " ")
	ngrams := extractNgrams(source)
	if len(ngrams) == 0 {
		return nil
	}

	query := orQueryFromPhrases(ngrams)
	res, err := e.gateway.TextSearch(ctx, query, fallbackTextFields, nil, index.SearchOptions{Limit: limit * 3})
	if err != nil {
		return nil
	}
	return scoreByPhraseOverlap(res.Docs, ngrams, target.ID, "text")
}

// semanticStrategy stands in for the vector path when embedding is
// unavailable: it pulls named entities, quoted phrases, and technical
// tokens out of the target article and retrieves/scores candidates with
// TextSearch alone — deliberately no embedder.Embed or VectorKNN call,
// per spec.md §4.2 step 6.
func (e *Engine) semanticStrategy(ctx context.Context, target *models.Article, limit int) []models.RankedArticle {
	source := strings.Join([]string{target.Title, target.Description, target.Content}, " ")
	tokens := extractSemanticTokens(source)
	if len(tokens) == 0 {
		return nil
	}

	query := orQueryFromPhrases(tokens)
	res, err := e.gateway.TextSearch(ctx, query, fallbackTextFields, nil, index.SearchOptions{Limit: limit * 3})
	if err != nil {
		return nil
	}
	return scoreByPhraseOverlap(res.Docs, tokens, target.ID, "semantic")
}

// categoryStrategy gathers candidates sharing the target's sentiment or
// source (each its own TextSearch call, merged by id since index.Filter
// only ANDs within a single call), then scores every merged candidate by
// spec.md §4.2's formula: 0.3*sentimentMatch + 0.2*sourceMatch +
// 0.3*categoryMatch, where categoryMatch is the fraction of the target's
// keywords the candidate also carries.
func (e *Engine) categoryStrategy(ctx context.Context, target *models.Article, limit int) []models.RankedArticle {
	candidates := make(map[string]models.Article)

	gather := func(filters index.Filter) {
		res, err := e.gateway.TextSearch(ctx, "", nil, filters, index.SearchOptions{Limit: limit * 3})
		if err != nil {
			return
		}
		for _, doc := range res.Docs {
			candidates[doc.ID] = doc
		}
	}

	if target.Sentiment != "" {
		gather(index.Filter{"sentiment": string(target.Sentiment)})
	}
	if target.Source.Name != "" {
		gather(index.Filter{"source.name": target.Source.Name})
	}
	if len(candidates) == 0 {
		res, err := e.gateway.TextSearch(ctx, "", nil, nil, index.SearchOptions{SortBy: "publishedAt", Limit: limit * 3})
		if err != nil {
			return nil
		}
		for _, doc := range res.Docs {
			candidates[doc.ID] = doc
		}
	}

	targetKeywords := make(map[string]bool, len(target.Keywords))
	for _, k := range target.Keywords {
		targetKeywords[strings.ToLower(k)] = true
	}

	var out []models.RankedArticle
	for id, doc := range candidates {
		if id == target.ID {
			continue
		}

		sentimentMatch := 0.0
		if target.Sentiment != "" && doc.Sentiment == target.Sentiment {
			sentimentMatch = 1.0
		}
		sourceMatch := 0.0
		if target.Source.Name != "" && doc.Source.Name == target.Source.Name {
			sourceMatch = 1.0
		}
		categoryMatch := 0.0
		if len(targetKeywords) > 0 {
			shared := 0
			for _, k := range doc.Keywords {
				if targetKeywords[strings.ToLower(k)] {
					shared++
				}
			}
			categoryMatch = float64(shared) / float64(len(targetKeywords))
		}

		score := 0.3*sentimentMatch + 0.2*sourceMatch + 0.3*categoryMatch
		if score <= 0 {
			continue
		}
		out = append(out, models.RankedArticle{Article: doc, Method: "category", Similarity: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

// temporalStrategy keeps candidates within +/-7 days of the target,
// scored by linear decay over a 30-day span (spec.md §4.2 step 6:
// max(0, 1 - deltaDays/30)).
func (e *Engine) temporalStrategy(ctx context.Context, target *models.Article, limit int) []models.RankedArticle {
	res, err := e.gateway.TextSearch(ctx, "", nil, nil, index.SearchOptions{SortBy: "publishedAt", Limit: limit * 3})
	if err != nil {
		return nil
	}

	const window = 7 * 24 * time.Hour
	const decaySpanDays = 30.0

	var out []models.RankedArticle
	for _, doc := range res.Docs {
		if doc.ID == target.ID {
			continue
		}
		delta := target.PublishedAt.Sub(doc.PublishedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta > window {
			continue
		}
		deltaDays := delta.Hours() / 24
		score := 1 - deltaDays/decaySpanDays
		if score <= 0 {
			continue
		}
		out = append(out, models.RankedArticle{Article: doc, Method: "temporal", Similarity: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

// orQueryFromPhrases turns a set of (possibly multi-word) phrases into a
// single whitespace-free OR term. index.ParseQuery tokenizes on whitespace
// before splitting on "|", so a multi-word phrase can't survive as an
// OR-alternative directly — the words making up every phrase are flattened
// into one pipe-joined unigram set instead, used purely for broad
// retrieval; ranking relevance comes from scoreByPhraseOverlap afterward.
func orQueryFromPhrases(phrases []string) string {
	seen := make(map[string]bool)
	var words []string
	for _, p := range phrases {
		for _, w := range strings.Fields(p) {
			w = strings.ToLower(w)
			if w != "" && !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	return strings.Join(words, "|")
}

// scoreByPhraseOverlap scores each candidate by the fraction of phrases
// (unigrams, bigrams, entities, or technical tokens — whatever the caller
// extracted) that appear as a substring of the candidate's concatenated
// text fields.
func scoreByPhraseOverlap(docs []models.Article, phrases []string, excludeID, method string) []models.RankedArticle {
	if len(phrases) == 0 {
		return nil
	}
	var out []models.RankedArticle
	for _, doc := range docs {
		if doc.ID == excludeID {
			continue
		}
		text := candidateText(doc)
		hits := 0
		for _, p := range phrases {
			if strings.Contains(text, strings.ToLower(p)) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := float64(hits) / float64(len(phrases))
		out = append(out, models.RankedArticle{Article: doc, Method: method, Similarity: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

func candidateText(a models.Article) string {
	return strings.ToLower(strings.Join([]string{
		a.Title, a.Description, a.Content, a.Summary, strings.Join(a.Keywords, " "),
	}, " "))
}
