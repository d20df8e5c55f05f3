package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/knowflow/internal/core/chunker"
	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

func newTestVectorizer(t *testing.T) (*Vectorizer, metadata.Store, *vector.MemoryStore) {
	t.Helper()
	mdStore, err := metadata.NewLocalStore(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, err)
	provider := embed.NewLocalProvider()
	vs := vector.NewMemoryStore("test-index", provider)
	v := NewVectorizer(mdStore, vs, provider, chunker.New(50, 10), 4)
	return v, mdStore, vs
}

func stageMarkdownArtifact(t *testing.T, body string) string {
	t.Helper()
	workDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "output"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "output", "output.md"), []byte(body), 0o644))
	return workDir
}

func TestVectorizerProcessStoresChunks(t *testing.T) {
	ctx := context.Background()
	v, _, vs := newTestVectorizer(t)

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, strings.Repeat("content ", 12))
	}
	workDir := stageMarkdownArtifact(t, strings.Join(lines, "\n"))
	md := models.DocumentMetadata{DocumentUID: "uid-1", DocumentName: "notes.md"}

	result, err := v.Process(ctx, workDir, md)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Positive(t, result.Chunks)

	hits, err := vs.SimilaritySearch(ctx, "content", result.Chunks+5)
	require.NoError(t, err)
	assert.Len(t, hits, result.Chunks)
	for _, hit := range hits {
		assert.Equal(t, "uid-1", hit.Chunk.DocumentUID)
		assert.Equal(t, md, hit.Chunk.Metadata)
	}
}

// A UID already present in the metadata store means a previous generation
// was vectorized; direct invocation must not duplicate it.
func TestVectorizerProcessIgnoresKnownUID(t *testing.T) {
	ctx := context.Background()
	v, mdStore, vs := newTestVectorizer(t)

	md := models.DocumentMetadata{DocumentUID: "uid-1", DocumentName: "notes.md"}
	require.NoError(t, mdStore.Save(ctx, md))

	workDir := stageMarkdownArtifact(t, "some converted text")
	result, err := v.Process(ctx, workDir, md)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIgnored, result.Status)
	assert.Zero(t, result.Chunks)

	hits, err := vs.SimilaritySearch(ctx, "converted", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorizerProcessMissingArtifact(t *testing.T) {
	v, _, _ := newTestVectorizer(t)
	md := models.DocumentMetadata{DocumentUID: "uid-1"}

	result, err := v.Process(context.Background(), t.TempDir(), md)
	require.Error(t, err)
	assert.Equal(t, models.StatusError, result.Status)
}
