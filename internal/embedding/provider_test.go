package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedIsDeterministic(t *testing.T) {
	m := NewDeterministicMock(16)
	v1, err := m.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := m.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestEmbedDiffersForDifferentText(t *testing.T) {
	m := NewDeterministicMock(16)
	v1, _ := m.Embed(context.Background(), "hello")
	v2, _ := m.Embed(context.Background(), "world")
	assert.NotEqual(t, v1, v2)
}

func TestEmbedRespectsDimension(t *testing.T) {
	m := NewDeterministicMock(64)
	v, err := m.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, v, 64)
	assert.Equal(t, 64, m.Dimension())
}

func TestEmbedDefaultsDimensionTo768(t *testing.T) {
	m := NewDeterministicMock(0)
	assert.Equal(t, 768, m.Dimension())
}

func TestWithFailAfterTriggersFailure(t *testing.T) {
	m := NewDeterministicMock(8).WithFailAfter(1)
	_, err := m.Embed(context.Background(), "first")
	require.NoError(t, err)
	_, err = m.Embed(context.Background(), "second")
	assert.ErrorIs(t, err, ErrEmbedUnavailable)
}

func TestSummarizeAndAnalyzeExtractsKeywords(t *testing.T) {
	m := NewDeterministicMock(8)
	analysis, err := m.SummarizeAndAnalyze(context.Background(), "Quantum Computing Breakthrough", "Researchers announced a major quantum computing breakthrough today.")
	require.NoError(t, err)
	assert.NotEmpty(t, analysis.Keywords)
	assert.Equal(t, "neutral", analysis.Sentiment)
}
