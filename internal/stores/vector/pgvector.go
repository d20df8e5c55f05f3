package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/models"
)

// PgvectorStore keeps chunks in Postgres with a pgvector column and ranks
// by cosine distance server-side.
type PgvectorStore struct {
	db        *sql.DB
	indexName string
	provider  embed.Provider
}

func NewPgvectorStore(ctx context.Context, db *sql.DB, indexName string, provider embed.Provider) (*PgvectorStore, error) {
	boot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	const schema = `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS document_chunks (
			document_uid text   NOT NULL,
			position     int    NOT NULL,
			text         text   NOT NULL,
			token_count  int    NOT NULL,
			metadata     jsonb,
			embedding    vector NOT NULL,
			created_at   timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (document_uid, position)
		)
	`
	if _, err := db.ExecContext(boot, schema); err != nil {
		return nil, fmt.Errorf("bootstrap document_chunks table: %w", err)
	}
	return &PgvectorStore{db: db, indexName: indexName, provider: provider}, nil
}

// Add inserts all chunks in a single transaction, removing whatever was
// previously stored for each UID in the batch first.
func (s *PgvectorStore) Add(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	uids := make(map[string]bool, 1)
	for i := range chunks {
		uids[chunks[i].DocumentUID] = true
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	for uid := range uids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_uid = $1`, uid); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("replace chunks for %s: %w", uid, err)
		}
	}

	const q = `
		INSERT INTO document_chunks
			(document_uid, position, text, token_count, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			ch.DocumentUID, ch.Position, ch.Text, ch.TokenCount, meta, vec,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk %s/%d: %w", ch.DocumentUID, ch.Position, err)
		}
	}
	return tx.Commit()
}

func (s *PgvectorStore) SimilaritySearch(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	vecs, err := s.provider.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	queryVec := pgvector.NewVector(vecs[0])

	const q = `
		SELECT document_uid, position, text, token_count, metadata,
		       1 - (embedding <=> $1) AS score
		FROM document_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, q, queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	var hits []models.SearchHit
	for rows.Next() {
		var (
			hit  models.SearchHit
			meta []byte
		)
		if err := rows.Scan(
			&hit.Chunk.DocumentUID, &hit.Chunk.Position, &hit.Chunk.Text,
			&hit.Chunk.TokenCount, &meta, &hit.Score,
		); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &hit.Chunk.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		hit.Rank = len(hits) + 1
		hit.EmbeddingModel = s.provider.ModelName()
		hit.VectorIndex = s.indexName
		hit.RetrievedAt = now
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *PgvectorStore) DeleteByUID(ctx context.Context, documentUID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_uid = $1`, documentUID)
	if err != nil {
		return fmt.Errorf("delete chunks for %s: %w", documentUID, err)
	}
	return nil
}

var _ Store = (*PgvectorStore)(nil)
