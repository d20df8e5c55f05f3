package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/core/chunker"
	"github.com/docfoundry/knowflow/internal/core/processor"
	"github.com/docfoundry/knowflow/internal/stores/chatprofile"
)

func newProfileFixture(t *testing.T, maxTokens int) (*ChatProfileService, chatprofile.Store) {
	t.Helper()
	registry, err := processor.NewRegistry(config.DefaultSettings(), processor.Deps{
		Chunker: chunker.New(500, 50),
	})
	require.NoError(t, err)

	store, err := chatprofile.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return NewChatProfileService(registry, store, maxTokens), store
}

func TestChatProfileCreateAndRead(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 40000)

	body := "# Onboarding\n\nHow the ingestion service works.\n"
	profile, err := svc.Create(ctx, "Onboarding", "internal docs", "fred", []UploadFile{
		{Name: "onboarding.md", Reader: strings.NewReader(body)},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "Onboarding", profile.Title)
	assert.Equal(t, "fred", profile.Creator)
	require.Len(t, profile.Documents, 1)
	assert.Equal(t, "md", profile.Documents[0].DocumentType)
	assert.Equal(t, chunker.ApproxTokens(body), profile.Tokens)

	got, err := svc.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)

	markdown, err := svc.GetDocument(ctx, profile.ID, profile.Documents[0].ID)
	require.NoError(t, err)
	assert.Equal(t, body, markdown)
}

// The ceiling check happens before any write: a rejected create leaves no
// profile behind.
func TestChatProfileTokenCeilingAbortsBeforeWrite(t *testing.T) {
	ctx := context.Background()
	svc, store := newProfileFixture(t, 10)

	_, err := svc.Create(ctx, "Too big", "", "fred", []UploadFile{
		{Name: "big.md", Reader: strings.NewReader(strings.Repeat("lots of text ", 50))},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token ceiling")

	profiles, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

// A failed update keeps the stored profile at its previous state.
func TestChatProfileUpdatePreservesPriorStateOnFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 200)

	profile, err := svc.Create(ctx, "Docs", "", "fred", []UploadFile{
		{Name: "small.md", Reader: strings.NewReader("short note")},
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, profile.ID, "Docs v2", "", []UploadFile{
		{Name: "huge.md", Reader: strings.NewReader(strings.Repeat("far too much text ", 100))},
	})
	require.Error(t, err)

	got, err := svc.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Docs", got.Title)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "small.md", got.Documents[0].DocumentName)
}

// An update replaces bundled documents by name and carries every other
// document over unchanged.
func TestChatProfileUpdateMergesUnreplacedDocuments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 40000)

	alphaBody := "alpha section\n"
	betaV1 := "beta notes v1\n"
	profile, err := svc.Create(ctx, "Docs", "", "fred", []UploadFile{
		{Name: "a.md", Reader: strings.NewReader(alphaBody)},
		{Name: "b.md", Reader: strings.NewReader(betaV1)},
	})
	require.NoError(t, err)
	require.Len(t, profile.Documents, 2)
	alphaID := profile.Documents[0].ID
	betaOldID := profile.Documents[1].ID

	betaV2 := "beta notes v2, rewritten\n"
	gammaBody := "gamma appendix\n"
	updated, err := svc.Update(ctx, profile.ID, "Docs v2", "", []UploadFile{
		{Name: "b.md", Reader: strings.NewReader(betaV2)},
		{Name: "c.md", Reader: strings.NewReader(gammaBody)},
	})
	require.NoError(t, err)
	require.Len(t, updated.Documents, 3)

	byName := make(map[string]string, len(updated.Documents))
	for _, doc := range updated.Documents {
		byName[doc.DocumentName] = doc.ID
	}
	require.Contains(t, byName, "a.md")
	require.Contains(t, byName, "b.md")
	require.Contains(t, byName, "c.md")

	// The unreplaced document keeps its identity and content.
	assert.Equal(t, alphaID, byName["a.md"])
	markdown, err := svc.GetDocument(ctx, updated.ID, alphaID)
	require.NoError(t, err)
	assert.Equal(t, alphaBody, markdown)

	// The replaced document is a fresh generation.
	assert.NotEqual(t, betaOldID, byName["b.md"])
	markdown, err = svc.GetDocument(ctx, updated.ID, byName["b.md"])
	require.NoError(t, err)
	assert.Equal(t, betaV2, markdown)

	wantTokens := chunker.ApproxTokens(alphaBody) +
		chunker.ApproxTokens(betaV2) + chunker.ApproxTokens(gammaBody)
	assert.Equal(t, wantTokens, updated.Tokens)
}

// Carried-over documents count against the ceiling during an update.
func TestChatProfileUpdateCeilingCountsCarriedDocuments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 60)

	body := strings.Repeat("word ", 32) // 40 tokens
	profile, err := svc.Create(ctx, "Docs", "", "fred", []UploadFile{
		{Name: "a.md", Reader: strings.NewReader(body)},
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, profile.ID, "Docs v2", "", []UploadFile{
		{Name: "c.md", Reader: strings.NewReader(body)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token ceiling")

	got, err := svc.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Docs", got.Title)
	require.Len(t, got.Documents, 1)
}

func TestChatProfileGetWithMarkdown(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 40000)

	guide := "# guide\n\nhow to ingest\n"
	faq := "# faq\n\ncommon questions\n"
	profile, err := svc.Create(ctx, "Support", "", "fred", []UploadFile{
		{Name: "guide.md", Reader: strings.NewReader(guide)},
		{Name: "faq.md", Reader: strings.NewReader(faq)},
	})
	require.NoError(t, err)

	view, err := svc.GetWithMarkdown(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Support", view.Title)
	require.Len(t, view.Files, 2)
	assert.Equal(t, "guide.md", view.Files[0].DocumentName)
	assert.Equal(t, guide, view.Files[0].Markdown)
	assert.Equal(t, "faq.md", view.Files[1].DocumentName)
	assert.Equal(t, faq, view.Files[1].Markdown)

	_, err = svc.GetWithMarkdown(ctx, "missing")
	assert.ErrorIs(t, err, chatprofile.ErrNotFound)
}

func TestChatProfileRejectsTabularUploads(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 40000)

	_, err := svc.Create(ctx, "Tables", "", "fred", []UploadFile{
		{Name: "data.csv", Reader: strings.NewReader("a,b\n1,2\n")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported in chat profiles")
}

func TestChatProfileDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileFixture(t, 40000)

	profile, err := svc.Create(ctx, "Docs", "", "fred", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, profile.ID))
	_, err = svc.Get(ctx, profile.ID)
	assert.ErrorIs(t, err, chatprofile.ErrNotFound)
}
