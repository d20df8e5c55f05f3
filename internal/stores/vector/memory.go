package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/models"
)

// MemoryStore is a brute-force index guarded by an RWMutex. Search scans
// every stored chunk, which is fine for the local profile and for tests.
type MemoryStore struct {
	mu        sync.RWMutex
	indexName string
	provider  embed.Provider
	chunks    []models.DocumentChunk
}

func NewMemoryStore(indexName string, provider embed.Provider) *MemoryStore {
	return &MemoryStore{indexName: indexName, provider: provider}
}

func (s *MemoryStore) Add(_ context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	incoming := make(map[string]bool, 1)
	for _, c := range chunks {
		incoming[c.DocumentUID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if !incoming[c.DocumentUID] {
			kept = append(kept, c)
		}
	}
	s.chunks = append(kept, chunks...)
	return nil
}

func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	vecs, err := s.provider.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	queryVec := vecs[0]

	s.mu.RLock()
	hits := make([]models.SearchHit, 0, len(s.chunks))
	for _, c := range s.chunks {
		hits = append(hits, models.SearchHit{
			Chunk: c,
			Score: cosineSimilarity(queryVec, c.Embedding),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	now := time.Now().UTC()
	for i := range hits {
		hits[i].Rank = i + 1
		hits[i].EmbeddingModel = s.provider.ModelName()
		hits[i].VectorIndex = s.indexName
		hits[i].RetrievedAt = now
	}
	return hits, nil
}

func (s *MemoryStore) DeleteByUID(_ context.Context, documentUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentUID != documentUID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ Store = (*MemoryStore)(nil)
