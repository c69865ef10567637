package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryPlainWords(t *testing.T) {
	terms := ParseQuery("ai chips")
	assert.Len(t, terms, 2)
	assert.Equal(t, []string{"ai"}, terms[0].Values)
	assert.Equal(t, []string{"chips"}, terms[1].Values)
}

func TestParseQueryOrGroup(t *testing.T) {
	terms := ParseQuery("ai|chips")
	assert.Len(t, terms, 1)
	assert.Equal(t, []string{"ai", "chips"}, terms[0].Values)
}

func TestParseQueryNegation(t *testing.T) {
	terms := ParseQuery("ai -crypto")
	assert.Len(t, terms, 2)
	assert.Equal(t, TermMust, terms[0].Kind)
	assert.Equal(t, TermMustNot, terms[1].Kind)
	assert.Equal(t, []string{"crypto"}, terms[1].Values)
}

func TestParseQueryTagFilter(t *testing.T) {
	terms := ParseQuery("sentiment:{positive}")
	require := assert.New(t)
	require.Len(terms, 1)
	require.Equal("sentiment", terms[0].Tag)
	require.Equal("positive", terms[0].Values[0])
}

func TestParseQueryEmpty(t *testing.T) {
	assert.Empty(t, ParseQuery(""))
	assert.Empty(t, ParseQuery("   "))
}
