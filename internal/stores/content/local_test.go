package content

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageWorkDir(t *testing.T, markdown string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "output"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "report.txt"), []byte("raw bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "output", "output.md"), []byte(markdown), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{}"), 0o644))
	return dir
}

func TestLocalStoreSaveAndRead(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "uid-1", stageWorkDir(t, "# converted")))

	md, err := s.GetMarkdown(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "# converted", md)

	stream, name, err := s.GetRawStream(ctx, "uid-1")
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, "report.txt", name)
	raw, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(raw))
}

func TestLocalStoreSaveReplacesPreviousTree(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "uid-1", stageWorkDir(t, "first generation")))

	// A file from the first generation must not survive the second save.
	stale := filepath.Join(root, "uid-1", "output", "leftover.bin")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	require.NoError(t, s.Save(ctx, "uid-1", stageWorkDir(t, "second generation")))

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))

	md, err := s.GetMarkdown(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "second generation", md)
}

func TestLocalStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.GetMarkdown(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.GetRawStream(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreDeleteMissingIsTolerated(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete(context.Background(), "missing"))
}
