package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/content"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

// MetadataService is the read/update/delete facade over the metadata store
// for operations outside the ingestion flow.
type MetadataService struct {
	metadata metadata.Store
	content  content.Store
	vectors  vector.Store

	// deleteMu serializes explicit document deletion so two concurrent
	// deletes of the same UID cannot interleave across the stores.
	deleteMu sync.Mutex
}

func NewMetadataService(md metadata.Store, cs content.Store, vs vector.Store) *MetadataService {
	return &MetadataService{metadata: md, content: cs, vectors: vs}
}

// GetAll lists documents matching the nested filter map. An empty filter
// returns everything.
func (s *MetadataService) GetAll(ctx context.Context, filters map[string]any) ([]models.DocumentMetadata, error) {
	return s.metadata.GetAll(ctx, filters)
}

func (s *MetadataService) GetByUID(ctx context.Context, uid string) (models.DocumentMetadata, error) {
	return s.metadata.GetByUID(ctx, uid)
}

// SetRetrievable flips the retrieval-visibility gate for one document.
func (s *MetadataService) SetRetrievable(ctx context.Context, uid string, retrievable bool) (models.DocumentMetadata, error) {
	return s.metadata.UpdateField(ctx, uid, "retrievable", retrievable)
}

// Delete removes the document's metadata, content tree and vector entries.
// The whole sequence holds one lock; it is still not atomic across stores,
// so a failure partway leaves earlier deletions in place.
func (s *MetadataService) Delete(ctx context.Context, uid string) error {
	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	md, err := s.metadata.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.metadata.Delete(ctx, md); err != nil {
		return fmt.Errorf("delete metadata for %s: %w", uid, err)
	}
	if err := s.content.Delete(ctx, uid); err != nil && !errors.Is(err, content.ErrNotFound) {
		return fmt.Errorf("delete content for %s: %w", uid, err)
	}
	if err := s.vectors.DeleteByUID(ctx, uid); err != nil {
		return fmt.Errorf("delete vectors for %s: %w", uid, err)
	}
	log.Printf("metadata: deleted document %s", uid)
	return nil
}
