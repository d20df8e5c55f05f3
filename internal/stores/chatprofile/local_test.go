package chatprofile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/knowflow/internal/models"
)

func sampleProfile(id, title string) models.ChatProfile {
	return models.ChatProfile{
		ID:     id,
		Title:  title,
		Tokens: 120,
		Documents: []models.ChatProfileDocument{
			{ID: "doc-1", DocumentName: "guide.md", DocumentType: "md", Tokens: 120},
		},
	}
}

func TestLocalStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	profile := sampleProfile("p-1", "Support docs")
	require.NoError(t, s.SaveProfile(ctx, profile, map[string]string{"doc-1": "# guide"}))

	got, err := s.GetProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, profile, got)

	markdown, err := s.GetDocument(ctx, "p-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "# guide", markdown)
}

func TestLocalStoreSaveReplacesBundle(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SaveProfile(ctx, sampleProfile("p-1", "v1"), map[string]string{"doc-1": "old"}))
	require.NoError(t, s.SaveProfile(ctx, sampleProfile("p-1", "v2"), map[string]string{"doc-2": "new"}))

	got, err := s.GetProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)

	_, err = s.GetDocument(ctx, "p-1", "doc-1")
	assert.ErrorIs(t, err, ErrNotFound)

	markdown, err := s.GetDocument(ctx, "p-1", "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "new", markdown)
}

func TestLocalStoreListProfiles(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SaveProfile(ctx, sampleProfile("p-b", "Beta"), nil))
	require.NoError(t, s.SaveProfile(ctx, sampleProfile("p-a", "Alpha"), nil))

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Alpha", profiles[0].Title)
	assert.Equal(t, "Beta", profiles[1].Title)
}

func TestLocalStoreListMarkdownFiles(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	profile := models.ChatProfile{
		ID:    "p-1",
		Title: "Support docs",
		Documents: []models.ChatProfileDocument{
			{ID: "doc-1", DocumentName: "guide.md", DocumentType: "md"},
			{ID: "doc-2", DocumentName: "faq.md", DocumentType: "md"},
		},
	}
	require.NoError(t, s.SaveProfile(ctx, profile, map[string]string{
		"doc-1": "# guide",
		"doc-2": "# faq",
	}))

	files, err := s.ListMarkdownFiles(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "guide.md", files[0].DocumentName)
	assert.Equal(t, "# guide", files[0].Markdown)
	assert.Equal(t, "doc-1", files[0].DocumentID)
	assert.Equal(t, "faq.md", files[1].DocumentName)
	assert.Equal(t, "# faq", files[1].Markdown)

	_, err = s.ListMarkdownFiles(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreDeleteProfile(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SaveProfile(ctx, sampleProfile("p-1", "Docs"), nil))
	require.NoError(t, s.DeleteProfile(ctx, "p-1"))

	_, err = s.GetProfile(ctx, "p-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteProfile(ctx, "p-1"), ErrNotFound)
}
