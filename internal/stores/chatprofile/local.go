package chatprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/docfoundry/knowflow/internal/models"
)

// LocalStore keeps each profile bundle as a directory under root.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create chat profile root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) SaveProfile(_ context.Context, profile models.ChatProfile, documents map[string]string) error {
	if profile.ID == "" {
		return fmt.Errorf("chat profile must have an id")
	}
	dir := filepath.Join(s.root, profile.ID)

	// Replace the whole bundle so stale documents never survive an update.
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clean profile dir %s: %w", profile.ID, err)
	}
	filesDir := filepath.Join(dir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir %s: %w", profile.ID, err)
	}

	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "profile.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write profile descriptor %s: %w", profile.ID, err)
	}

	for docID, markdown := range documents {
		path := filepath.Join(filesDir, docID+".md")
		if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("write profile document %s/%s: %w", profile.ID, docID, err)
		}
	}
	return nil
}

func (s *LocalStore) DeleteProfile(_ context.Context, profileID string) error {
	dir := filepath.Join(s.root, profileID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrNotFound
	}
	return os.RemoveAll(dir)
}

func (s *LocalStore) GetProfile(_ context.Context, profileID string) (models.ChatProfile, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, profileID, "profile.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return models.ChatProfile{}, ErrNotFound
		}
		return models.ChatProfile{}, fmt.Errorf("read profile %s: %w", profileID, err)
	}
	var profile models.ChatProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return models.ChatProfile{}, fmt.Errorf("decode profile %s: %w", profileID, err)
	}
	return profile, nil
}

func (s *LocalStore) ListProfiles(ctx context.Context) ([]models.ChatProfile, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	var out []models.ChatProfile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		profile, err := s.GetProfile(ctx, e.Name())
		if err != nil {
			// A directory without a descriptor is a partial write; skip it.
			continue
		}
		out = append(out, profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *LocalStore) ListMarkdownFiles(ctx context.Context, profileID string) ([]NamedMarkdown, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	out := make([]NamedMarkdown, 0, len(profile.Documents))
	for _, doc := range profile.Documents {
		markdown, err := s.GetDocument(ctx, profileID, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("list profile %s: document %s: %w", profileID, doc.ID, err)
		}
		out = append(out, NamedMarkdown{
			DocumentID:   doc.ID,
			DocumentName: doc.DocumentName,
			Markdown:     markdown,
		})
	}
	return out, nil
}

func (s *LocalStore) GetDocument(_ context.Context, profileID, documentID string) (string, error) {
	path := filepath.Join(s.root, profileID, "files", documentID+".md")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read profile document %s/%s: %w", profileID, documentID, err)
	}
	return string(raw), nil
}

var _ Store = (*LocalStore)(nil)
