// Package chatprofile persists chat-profile bundles: a profile.json
// descriptor plus one pre-converted markdown file per bundled document.
package chatprofile

import (
	"context"
	"errors"
	"fmt"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/models"
)

// ErrNotFound reports a missing profile or a missing document within one.
var ErrNotFound = errors.New("chat profile not found")

// NamedMarkdown pairs one bundled document with its stored markdown.
type NamedMarkdown struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Markdown     string `json:"markdown"`
}

// Store lays profiles out as {profile_id}/profile.json plus
// {profile_id}/files/{document_id}.md. SaveProfile replaces the whole
// bundle so a profile never mixes generations.
type Store interface {
	// SaveProfile writes the descriptor and the markdown documents keyed by
	// document ID, removing any previous bundle for the same profile ID.
	SaveProfile(ctx context.Context, profile models.ChatProfile, documents map[string]string) error
	DeleteProfile(ctx context.Context, profileID string) error
	GetProfile(ctx context.Context, profileID string) (models.ChatProfile, error)
	ListProfiles(ctx context.Context) ([]models.ChatProfile, error)
	// GetDocument returns the stored markdown for one bundled document.
	GetDocument(ctx context.Context, profileID, documentID string) (string, error)
	// ListMarkdownFiles returns every bundled document's name and markdown,
	// in descriptor order.
	ListMarkdownFiles(ctx context.Context, profileID string) ([]NamedMarkdown, error)
}

// New selects the chat-profile backend from configuration.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Settings.ChatProfileStorage.Type {
	case "local":
		return NewLocalStore(cfg.Env.ChatProfileRoot)
	case "minio":
		return NewMinioStore(ctx, cfg.Env)
	default:
		return nil, fmt.Errorf("unsupported chat profile storage backend: %q", cfg.Settings.ChatProfileStorage.Type)
	}
}
