package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/knowflow/internal/models"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, err)
	return s
}

func sample(uid, agent string) models.DocumentMetadata {
	return models.DocumentMetadata{
		DocumentUID:   uid,
		DocumentName:  uid + ".txt",
		Retrievable:   true,
		FrontMetadata: map[string]string{"agent_name": agent},
	}
}

func TestLocalStoreSaveUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, sample("uid-1", "fred")))
	require.NoError(t, s.Save(ctx, sample("uid-2", "alice")))

	updated := sample("uid-1", "fred")
	updated.Title = "revised"
	require.NoError(t, s.Save(ctx, updated))

	all, err := s.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := s.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "revised", got.Title)
}

func TestLocalStoreGetByUIDNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetByUID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreNestedFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, sample("uid-1", "fred")))
	require.NoError(t, s.Save(ctx, sample("uid-2", "alice")))

	matched, err := s.GetAll(ctx, map[string]any{
		"front_metadata": map[string]any{"agent_name": "fred"},
	})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "uid-1", matched[0].DocumentUID)

	none, err := s.GetAll(ctx, map[string]any{
		"front_metadata": map[string]any{"agent_name": "bob"},
	})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := s.GetAll(ctx, map[string]any{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLocalStoreFiltersCompareStringForm(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	md := sample("uid-1", "fred")
	md.Retrievable = true
	require.NoError(t, s.Save(ctx, md))

	matched, err := s.GetAll(ctx, map[string]any{"retrievable": true})
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	matched, err = s.GetAll(ctx, map[string]any{"retrievable": "true"})
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}

func TestLocalStoreUpdateField(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, sample("uid-1", "fred")))

	updated, err := s.UpdateField(ctx, "uid-1", "retrievable", false)
	require.NoError(t, err)
	assert.False(t, updated.Retrievable)

	got, err := s.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, got.Retrievable)

	_, err = s.UpdateField(ctx, "missing", "retrievable", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	md := sample("uid-1", "fred")
	require.NoError(t, s.Save(ctx, md))

	require.NoError(t, s.Delete(ctx, md))
	_, err := s.GetByUID(ctx, "uid-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, md), ErrNotFound)
}
