package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/docfoundry/knowflow/internal/models"
)

// LocalStore persists all records in a single JSON file. It is meant for
// local development and lightweight deployments; every call rewrites the
// whole file, so it is not tuned for large datasets.
type LocalStore struct {
	mu   sync.Mutex
	path string
}

func NewLocalStore(path string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("init metadata file: %w", err)
		}
	}
	return &LocalStore{path: path}, nil
}

func (s *LocalStore) load() ([]models.DocumentMetadata, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	var out []models.DocumentMetadata
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse metadata file: %w", err)
	}
	return out, nil
}

func (s *LocalStore) save(data []models.DocumentMetadata) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

func (s *LocalStore) GetAll(_ context.Context, filters map[string]any) ([]models.DocumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	matched := make([]models.DocumentMetadata, 0, len(data))
	for _, item := range data {
		if matchNested(item.AsMap(), filters) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

func (s *LocalStore) GetByUID(_ context.Context, documentUID string) (models.DocumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	for _, item := range data {
		if item.DocumentUID == documentUID {
			return item, nil
		}
	}
	return models.DocumentMetadata{}, ErrNotFound
}

func (s *LocalStore) UpdateField(_ context.Context, documentUID, field string, value any) (models.DocumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	for i, item := range data {
		if item.DocumentUID != documentUID {
			continue
		}
		updated, err := setField(item, field, value)
		if err != nil {
			return models.DocumentMetadata{}, err
		}
		data[i] = updated
		if err := s.save(data); err != nil {
			return models.DocumentMetadata{}, err
		}
		return updated, nil
	}
	return models.DocumentMetadata{}, ErrNotFound
}

func (s *LocalStore) Save(_ context.Context, md models.DocumentMetadata) error {
	if md.DocumentUID == "" {
		return fmt.Errorf("metadata must contain a document_uid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, item := range data {
		if item.DocumentUID == md.DocumentUID {
			data[i] = md
			replaced = true
			break
		}
	}
	if !replaced {
		data = append(data, md)
	}
	return s.save(data)
}

func (s *LocalStore) Delete(_ context.Context, md models.DocumentMetadata) error {
	if md.DocumentUID == "" {
		return fmt.Errorf("cannot delete metadata without document_uid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	kept := data[:0]
	for _, item := range data {
		if item.DocumentUID != md.DocumentUID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(data) {
		return ErrNotFound
	}
	return s.save(kept)
}

// setField applies a single-field update through the JSON representation so
// the store supports any field name the API exposes.
func setField(md models.DocumentMetadata, field string, value any) (models.DocumentMetadata, error) {
	m := md.AsMap()
	if m == nil {
		return models.DocumentMetadata{}, fmt.Errorf("encode metadata for update")
	}
	m[field] = value
	raw, err := json.Marshal(m)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	var out models.DocumentMetadata
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.DocumentMetadata{}, fmt.Errorf("unknown metadata field %q: %w", field, err)
	}
	return out, nil
}
