// Package vector stores chunk embeddings and answers similarity queries.
// The store owns the embedding provider so callers pass plain text and get
// annotated hits back.
package vector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/models"
)

// Store indexes chunks by document UID.
// Add replaces every chunk previously stored for each UID present in the
// batch, so one call per ingestion generation fully supersedes the last.
type Store interface {
	Add(ctx context.Context, chunks []models.DocumentChunk) error
	// SimilaritySearch embeds the query and returns the topK closest chunks
	// by cosine similarity, ranked from 1 and annotated with the embedding
	// model, index name and retrieval timestamp.
	SimilaritySearch(ctx context.Context, query string, topK int) ([]models.SearchHit, error)
	DeleteByUID(ctx context.Context, documentUID string) error
}

// New selects the vector backend from configuration.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, provider embed.Provider) (Store, error) {
	switch cfg.Settings.VectorStorage.Type {
	case "in_memory":
		return NewMemoryStore(cfg.Settings.VectorIndexName, provider), nil
	case "pgvector":
		if db == nil {
			return nil, fmt.Errorf("pgvector backend requires DATABASE_URL")
		}
		return NewPgvectorStore(ctx, db, cfg.Settings.VectorIndexName, provider)
	default:
		return nil, fmt.Errorf("unsupported vector storage backend: %q", cfg.Settings.VectorStorage.Type)
	}
}
