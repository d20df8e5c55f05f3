package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

const defaultTopK = 10

// VectorSearchService answers similarity queries, honoring the per-document
// retrievable gate at query time.
type VectorSearchService struct {
	vectors  vector.Store
	metadata metadata.Store
}

func NewVectorSearchService(vs vector.Store, md metadata.Store) *VectorSearchService {
	return &VectorSearchService{vectors: vs, metadata: md}
}

// Search returns the topK most similar chunks whose parent document still
// exists and is retrievable. Stored chunks carry a metadata copy from
// ingestion time, so the gate is re-checked against the live store here.
func (s *VectorSearchService) Search(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	hits, err := s.vectors.SimilaritySearch(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	retrievable := make(map[string]bool)
	kept := hits[:0]
	for _, hit := range hits {
		uid := hit.Chunk.DocumentUID
		allowed, checked := retrievable[uid]
		if !checked {
			md, err := s.metadata.GetByUID(ctx, uid)
			switch {
			case err == nil:
				allowed = md.Retrievable
			case errors.Is(err, metadata.ErrNotFound):
				allowed = false
			default:
				return nil, fmt.Errorf("check retrievable for %s: %w", uid, err)
			}
			retrievable[uid] = allowed
		}
		if allowed {
			hit.Rank = len(kept) + 1
			kept = append(kept, hit)
		}
	}
	return kept, nil
}
