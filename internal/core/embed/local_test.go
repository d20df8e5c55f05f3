package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderDeterminism(t *testing.T) {
	p := NewLocalProvider()

	a, err := p.EmbedTexts(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)
	b, err := p.EmbedTexts(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	assert.Equal(t, a[0], b[0])
	assert.Len(t, a[0], localDim)
}

func TestLocalProviderNormalized(t *testing.T) {
	p := NewLocalProvider()
	vecs, err := p.EmbedTexts(context.Background(), []string{"alpha beta gamma delta"})
	require.NoError(t, err)

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalProviderDistinguishesTexts(t *testing.T) {
	p := NewLocalProvider()
	vecs, err := p.EmbedTexts(context.Background(), []string{"storage backends", "completely different topic"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestLocalProviderEmptyBatch(t *testing.T) {
	p := NewLocalProvider()
	vecs, err := p.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
