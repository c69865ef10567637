package similarity

import (
	"regexp"
	"strings"
)

// stopWords is the fixed list dropped before unigram/bigram expansion
// (spec.md §4.2 step 6's "text" strategy, P7).
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "being": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true,
	"for": true, "from": true, "had": true, "has": true, "have": true,
	"he": true, "her": true, "his": true, "i": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "may": true, "might": true,
	"must": true, "my": true, "no": true, "not": true, "of": true, "off": true,
	"on": true, "or": true, "our": true, "out": true, "over": true,
	"she": true, "should": true, "than": true, "that": true, "the": true,
	"their": true, "then": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "to": true, "under": true, "up": true,
	"was": true, "we": true, "were": true, "will": true, "with": true,
	"would": true, "you": true, "your": true,
}

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

func tokenizeWords(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// extractNgrams expands text into stop-word-filtered unigrams plus adjacent
// bigrams, deduplicated and order-preserving (spec.md §4.2 step 6, P7).
func extractNgrams(text string) []string {
	var filtered []string
	for _, tok := range tokenizeWords(text) {
		if !stopWords[tok] {
			filtered = append(filtered, tok)
		}
	}

	seen := make(map[string]bool, len(filtered)*2)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for i, tok := range filtered {
		add(tok)
		if i+1 < len(filtered) {
			add(tok + " " + filtered[i+1])
		}
	}
	return out
}

var (
	quotedPhrasePattern = regexp.MustCompile(`"([^"]+)"`)
	entityPattern       = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*\b`)
	technicalPattern    = regexp.MustCompile(`\b[a-zA-Z]*[0-9]+[a-zA-Z0-9]*\b`)
)

// extractSemanticTokens pulls quoted phrases, capitalized entity runs, and
// alphanumeric technical tokens out of text (spec.md §4.2 step 6's
// "semantic" strategy) — deliberately independent of the embedder, since
// this strategy exists to cover for it when it's unavailable.
func extractSemanticTokens(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}

	for _, m := range quotedPhrasePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range entityPattern.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range technicalPattern.FindAllString(text, -1) {
		add(m)
	}
	return out
}
