package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/docfoundry/knowflow/internal/core/chunker"
	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

// Vectorizer is the markdown output pipeline: load the converted artifact,
// chunk it, embed the chunks in batches and write them to the vector store
// in one call.
type Vectorizer struct {
	metadata  metadata.Store
	vectors   vector.Store
	embedder  embed.Provider
	chunker   *chunker.Chunker
	batchSize int
}

func NewVectorizer(md metadata.Store, vs vector.Store, provider embed.Provider, ch *chunker.Chunker, batchSize int) *Vectorizer {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &Vectorizer{metadata: md, vectors: vs, embedder: provider, chunker: ch, batchSize: batchSize}
}

func (v *Vectorizer) Process(ctx context.Context, workDir string, md models.DocumentMetadata) (models.VectorizationResult, error) {
	raw, err := os.ReadFile(filepath.Join(workDir, "output", "output.md"))
	if err != nil {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("load converted artifact for %s: %w", md.DocumentUID, err)
	}

	// Guard for direct invocation paths: a UID already in the metadata store
	// was vectorized by a previous generation, so skip instead of duplicating.
	// The orchestrator deletes the old generation before reaching this point.
	_, err = v.metadata.GetByUID(ctx, md.DocumentUID)
	if err == nil {
		log.Printf("vectorize: %s already known, skipping", md.DocumentUID)
		return models.VectorizationResult{Status: models.StatusIgnored}, nil
	}
	if !errors.Is(err, metadata.ErrNotFound) {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("check existing metadata for %s: %w", md.DocumentUID, err)
	}

	chunks, err := v.chunker.SplitText(ctx, string(raw))
	if err != nil {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("chunk %s: %w", md.DocumentUID, err)
	}
	if len(chunks) == 0 {
		return models.VectorizationResult{Status: models.StatusSuccess}, nil
	}

	docChunks := make([]models.DocumentChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += v.batchSize {
		end := start + v.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vecs, err := v.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return models.VectorizationResult{Status: models.StatusError},
				fmt.Errorf("embed chunks %d..%d for %s: %w", start, end-1, md.DocumentUID, err)
		}
		if len(vecs) != len(batch) {
			return models.VectorizationResult{Status: models.StatusError},
				fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
		}
		for i, c := range batch {
			docChunks = append(docChunks, models.DocumentChunk{
				DocumentUID: md.DocumentUID,
				Position:    c.Pos,
				Text:        c.Text,
				TokenCount:  c.TokenCnt,
				Embedding:   vecs[i],
				Metadata:    md,
			})
		}
	}

	// One Add per document: the store replaces the UID's prior chunks, so a
	// second call would erase the first batch.
	if err := v.vectors.Add(ctx, docChunks); err != nil {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("store vectors for %s: %w", md.DocumentUID, err)
	}
	return models.VectorizationResult{Status: models.StatusSuccess, Chunks: len(docChunks)}, nil
}

var _ OutputProcessor = (*Vectorizer)(nil)
