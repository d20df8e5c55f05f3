// Package metadata persists the canonical document records, keyed by the
// deterministic document UID.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/models"
)

// ErrNotFound reports a lookup for a document UID that has no stored entry.
// Callers map it to a 404 rather than a generic failure.
var ErrNotFound = errors.New("document metadata not found")

// Store is the metadata persistence contract. Filters passed to GetAll are
// a possibly-nested key/value match, AND-combined across top-level keys and
// applied exactly, including inside the front_metadata sub-map. Save has
// upsert semantics keyed by document_uid.
type Store interface {
	GetAll(ctx context.Context, filters map[string]any) ([]models.DocumentMetadata, error)
	GetByUID(ctx context.Context, documentUID string) (models.DocumentMetadata, error)
	UpdateField(ctx context.Context, documentUID, field string, value any) (models.DocumentMetadata, error)
	Save(ctx context.Context, md models.DocumentMetadata) error
	Delete(ctx context.Context, md models.DocumentMetadata) error
}

// New selects the metadata backend from configuration. db is only consulted
// for the postgres backend and may be nil otherwise.
func New(cfg *config.Config, db *sql.DB) (Store, error) {
	switch cfg.Settings.MetadataStorage.Type {
	case "local":
		return NewLocalStore(cfg.Env.MetadataPath)
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("metadata backend %q requires a database connection", cfg.Settings.MetadataStorage.Type)
		}
		return NewPostgresStore(context.Background(), db)
	default:
		return nil, fmt.Errorf("unsupported metadata storage backend: %q", cfg.Settings.MetadataStorage.Type)
	}
}

// matchNested recursively applies a nested filter to a metadata map.
// Scalar leaves compare by their string form so callers can filter JSON
// numbers and booleans without worrying about the decoded Go type.
func matchNested(item map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		if sub, ok := want.(map[string]any); ok {
			inner, ok := item[key].(map[string]any)
			if !ok || !matchNested(inner, sub) {
				return false
			}
			continue
		}
		if fmt.Sprintf("%v", item[key]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
