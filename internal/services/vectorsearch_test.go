package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

func newSearchFixture(t *testing.T) (*VectorSearchService, metadata.Store, *vector.MemoryStore, embed.Provider) {
	t.Helper()
	mdStore, err := metadata.NewLocalStore(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, err)
	provider := embed.NewLocalProvider()
	vectorStore := vector.NewMemoryStore("test-index", provider)
	return NewVectorSearchService(vectorStore, mdStore), mdStore, vectorStore, provider
}

func addDocument(t *testing.T, mdStore metadata.Store, vs *vector.MemoryStore, provider embed.Provider, uid, text string, retrievable bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mdStore.Save(ctx, models.DocumentMetadata{
		DocumentUID: uid, DocumentName: uid + ".md", Retrievable: retrievable,
	}))
	vecs, err := provider.EmbedTexts(ctx, []string{text})
	require.NoError(t, err)
	require.NoError(t, vs.Add(ctx, []models.DocumentChunk{{
		DocumentUID: uid, Position: 0, Text: text, Embedding: vecs[0],
	}}))
}

func TestSearchFiltersNonRetrievableDocuments(t *testing.T) {
	ctx := context.Background()
	svc, mdStore, vs, provider := newSearchFixture(t)

	addDocument(t, mdStore, vs, provider, "uid-visible", "vector search in postgres", true)
	addDocument(t, mdStore, vs, provider, "uid-hidden", "vector search in memory", false)

	hits, err := svc.Search(ctx, "vector search", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "uid-visible", hits[0].Chunk.DocumentUID)
	assert.Equal(t, 1, hits[0].Rank)
}

func TestSearchDropsDeletedDocuments(t *testing.T) {
	ctx := context.Background()
	svc, mdStore, vs, provider := newSearchFixture(t)

	addDocument(t, mdStore, vs, provider, "uid-1", "orphaned chunks", true)
	require.NoError(t, mdStore.Delete(ctx, models.DocumentMetadata{DocumentUID: "uid-1"}))

	hits, err := svc.Search(ctx, "orphaned chunks", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc, _, _, _ := newSearchFixture(t)
	_, err := svc.Search(context.Background(), "", 5)
	require.Error(t, err)
}

func TestSearchReranksAfterFiltering(t *testing.T) {
	ctx := context.Background()
	svc, mdStore, vs, provider := newSearchFixture(t)

	addDocument(t, mdStore, vs, provider, "uid-a", "alpha retrieval text", false)
	addDocument(t, mdStore, vs, provider, "uid-b", "beta retrieval text", true)
	addDocument(t, mdStore, vs, provider, "uid-c", "gamma retrieval text", true)

	hits, err := svc.Search(ctx, "retrieval text", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for i, hit := range hits {
		assert.Equal(t, i+1, hit.Rank)
		assert.NotEqual(t, "uid-a", hit.Chunk.DocumentUID)
	}
}
