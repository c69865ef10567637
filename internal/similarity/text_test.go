package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNgramsDropsStopWordsAndBuildsBigrams(t *testing.T) {
	out := extractNgrams("The Quantum Computing Breakthrough")

	assert.Contains(t, out, "quantum")
	assert.Contains(t, out, "computing")
	assert.Contains(t, out, "breakthrough")
	assert.Contains(t, out, "quantum computing")
	assert.Contains(t, out, "computing breakthrough")
	assert.NotContains(t, out, "the")
}

func TestExtractNgramsDeduplicates(t *testing.T) {
	out := extractNgrams("chip chip chip")
	count := 0
	for _, tok := range out {
		if tok == "chip" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractSemanticTokensFindsQuotedPhrasesEntitiesAndTechnicalTokens(t *testing.T) {
	out := extractSemanticTokens(`Nvidia announced the "H100 successor" chip, internally codenamed GB200.`)

	assert.Contains(t, out, "H100 successor")
	assert.Contains(t, out, "Nvidia")
	assert.Contains(t, out, "GB200")
}

func TestOrQueryFromPhrasesFlattensMultiWordPhrasesIntoUnigrams(t *testing.T) {
	query := orQueryFromPhrases([]string{"quantum computing", "chip"})

	assert.Contains(t, query, "quantum")
	assert.Contains(t, query, "computing")
	assert.Contains(t, query, "chip")
	assert.NotContains(t, query, " ")
}
