package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docfoundry/knowflow/internal/models"
)

// PostgresStore keeps each record as a JSONB document keyed by UID, which
// lets the nested front_metadata filters run server-side via containment.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	boot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			document_uid text PRIMARY KEY,
			doc          jsonb NOT NULL,
			updated_at   timestamptz NOT NULL DEFAULT now()
		)
	`
	if _, err := db.ExecContext(boot, schema); err != nil {
		return nil, fmt.Errorf("bootstrap documents table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetAll(ctx context.Context, filters map[string]any) ([]models.DocumentMetadata, error) {
	const q = `SELECT doc FROM documents ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	var out []models.DocumentMetadata
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var md models.DocumentMetadata
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, fmt.Errorf("decode metadata row: %w", err)
		}
		// Filters compare by string form, same as the local backend, so
		// matching happens here rather than with jsonb containment.
		if matchNested(md.AsMap(), filters) {
			out = append(out, md)
		}
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetByUID(ctx context.Context, documentUID string) (models.DocumentMetadata, error) {
	const q = `SELECT doc FROM documents WHERE document_uid = $1`
	var raw []byte
	err := s.db.QueryRowContext(ctx, q, documentUID).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.DocumentMetadata{}, ErrNotFound
	}
	if err != nil {
		return models.DocumentMetadata{}, fmt.Errorf("get metadata %s: %w", documentUID, err)
	}
	var md models.DocumentMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return models.DocumentMetadata{}, fmt.Errorf("decode metadata %s: %w", documentUID, err)
	}
	return md, nil
}

func (s *PostgresStore) UpdateField(ctx context.Context, documentUID, field string, value any) (models.DocumentMetadata, error) {
	md, err := s.GetByUID(ctx, documentUID)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	updated, err := setField(md, field, value)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	if err := s.Save(ctx, updated); err != nil {
		return models.DocumentMetadata{}, err
	}
	return updated, nil
}

func (s *PostgresStore) Save(ctx context.Context, md models.DocumentMetadata) error {
	if md.DocumentUID == "" {
		return fmt.Errorf("metadata must contain a document_uid")
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO documents (document_uid, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (document_uid) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, q, md.DocumentUID, raw); err != nil {
		return fmt.Errorf("save metadata %s: %w", md.DocumentUID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, md models.DocumentMetadata) error {
	if md.DocumentUID == "" {
		return fmt.Errorf("cannot delete metadata without document_uid")
	}
	const q = `DELETE FROM documents WHERE document_uid = $1`
	res, err := s.db.ExecContext(ctx, q, md.DocumentUID)
	if err != nil {
		return fmt.Errorf("delete metadata %s: %w", md.DocumentUID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
