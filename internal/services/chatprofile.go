package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docfoundry/knowflow/internal/core/chunker"
	"github.com/docfoundry/knowflow/internal/core/processor"
	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/chatprofile"
)

// ChatProfileService manages named bundles of pre-converted documents.
// Uploads run through the same input processors as ingestion; the resulting
// markdown is stored per document inside the profile.
type ChatProfileService struct {
	registry  *processor.Registry
	store     chatprofile.Store
	maxTokens int
}

func NewChatProfileService(registry *processor.Registry, store chatprofile.Store, maxTokens int) *ChatProfileService {
	if maxTokens <= 0 {
		maxTokens = 40000
	}
	return &ChatProfileService{registry: registry, store: store, maxTokens: maxTokens}
}

func (s *ChatProfileService) List(ctx context.Context) ([]models.ChatProfile, error) {
	return s.store.ListProfiles(ctx)
}

func (s *ChatProfileService) Get(ctx context.Context, profileID string) (models.ChatProfile, error) {
	return s.store.GetProfile(ctx, profileID)
}

func (s *ChatProfileService) Delete(ctx context.Context, profileID string) error {
	return s.store.DeleteProfile(ctx, profileID)
}

// GetDocument returns the stored markdown of one bundled document.
func (s *ChatProfileService) GetDocument(ctx context.Context, profileID, documentID string) (string, error) {
	return s.store.GetDocument(ctx, profileID, documentID)
}

// ProfileWithMarkdown is the conversational view of a profile: the descriptor
// plus the markdown of every bundled document, ready for context injection.
type ProfileWithMarkdown struct {
	models.ChatProfile
	Files []chatprofile.NamedMarkdown `json:"files"`
}

// GetWithMarkdown returns the profile together with all bundled markdown.
func (s *ChatProfileService) GetWithMarkdown(ctx context.Context, profileID string) (ProfileWithMarkdown, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return ProfileWithMarkdown{}, err
	}
	files, err := s.store.ListMarkdownFiles(ctx, profileID)
	if err != nil {
		return ProfileWithMarkdown{}, err
	}
	return ProfileWithMarkdown{ChatProfile: profile, Files: files}, nil
}

// Create converts the uploads, enforces the token ceiling and persists a new
// profile. Nothing is written when the ceiling would be exceeded.
func (s *ChatProfileService) Create(ctx context.Context, title, description, creator string, files []UploadFile) (models.ChatProfile, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	profile := models.ChatProfile{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Creator:     creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.build(ctx, profile, files, nil)
}

// Update merges the uploads into an existing profile's bundle: an upload
// replaces the bundled document with the same name, every other document is
// carried over unchanged. The token ceiling applies to the merged total.
// On any failure, including a ceiling violation, the stored profile keeps
// its previous state.
func (s *ChatProfileService) Update(ctx context.Context, profileID, title, description string, files []UploadFile) (models.ChatProfile, error) {
	existing, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return models.ChatProfile{}, err
	}
	bundle, err := s.store.ListMarkdownFiles(ctx, profileID)
	if err != nil {
		return models.ChatProfile{}, err
	}
	markdownByID := make(map[string]string, len(bundle))
	for _, doc := range bundle {
		markdownByID[doc.DocumentID] = doc.Markdown
	}
	replaced := make(map[string]bool, len(files))
	for _, f := range files {
		replaced[f.Name] = true
	}

	profile := existing
	profile.Title = title
	profile.Description = description
	profile.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	profile.Tokens = 0
	profile.Documents = nil

	carried := make(map[string]string)
	for _, doc := range existing.Documents {
		if replaced[doc.DocumentName] {
			continue
		}
		profile.Documents = append(profile.Documents, doc)
		profile.Tokens += doc.Tokens
		carried[doc.ID] = markdownByID[doc.ID]
	}
	return s.build(ctx, profile, files, carried)
}

// build converts every upload to markdown, sums token counts against the
// ceiling and only then saves the whole bundle in one call. carried holds
// markdown of documents already counted in profile.Tokens.
func (s *ChatProfileService) build(ctx context.Context, profile models.ChatProfile, files []UploadFile, carried map[string]string) (models.ChatProfile, error) {
	documents := make(map[string]string, len(carried)+len(files))
	for id, markdown := range carried {
		documents[id] = markdown
	}

	for _, file := range files {
		markdown, err := s.toMarkdown(ctx, file)
		if err != nil {
			return models.ChatProfile{}, fmt.Errorf("process %s: %w", file.Name, err)
		}
		tokens := chunker.ApproxTokens(markdown)
		if profile.Tokens+tokens > s.maxTokens {
			return models.ChatProfile{}, fmt.Errorf(
				"adding %s would exceed the profile token ceiling (%d + %d > %d)",
				file.Name, profile.Tokens, tokens, s.maxTokens)
		}

		doc := models.ChatProfileDocument{
			ID:           uuid.NewString(),
			DocumentName: file.Name,
			DocumentType: strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), "."),
			Size:         int64(len(markdown)),
			Tokens:       tokens,
		}
		profile.Documents = append(profile.Documents, doc)
		profile.Tokens += tokens
		documents[doc.ID] = markdown
	}

	if err := s.store.SaveProfile(ctx, profile, documents); err != nil {
		return models.ChatProfile{}, fmt.Errorf("save profile %s: %w", profile.ID, err)
	}
	return profile, nil
}

// toMarkdown stages the upload and runs it through its input processor.
// Only markdown-producing formats can join a profile.
func (s *ChatProfileService) toMarkdown(ctx context.Context, file UploadFile) (string, error) {
	input, err := s.registry.Input(file.Name)
	if err != nil {
		return "", err
	}
	mp, ok := input.(processor.MarkdownProcessor)
	if !ok || input.Capability() != processor.CapMarkdown {
		return "", fmt.Errorf("format %q is not supported in chat profiles", filepath.Ext(file.Name))
	}

	workDir, err := os.MkdirTemp("", "knowflow-profile-*")
	if err != nil {
		return "", fmt.Errorf("create working dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, filepath.Base(file.Name))
	dst, err := os.Create(inputPath)
	if err != nil {
		return "", err
	}
	if _, err := copyAndClose(dst, file.Reader); err != nil {
		return "", fmt.Errorf("stage %s: %w", file.Name, err)
	}

	if !mp.CheckFileValidity(inputPath) {
		return "", fmt.Errorf("file %s failed validity check", file.Name)
	}
	outputDir := filepath.Join(workDir, "output")
	if err := mp.ConvertToMarkdown(ctx, inputPath, outputDir); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(filepath.Join(outputDir, "output.md"))
	if err != nil {
		return "", fmt.Errorf("read converted markdown: %w", err)
	}
	return string(raw), nil
}

func copyAndClose(dst *os.File, src io.Reader) (int64, error) {
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return n, err
}
