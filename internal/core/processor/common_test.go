package processor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentUIDDeterminism(t *testing.T) {
	uid1 := DocumentUID("fred", "report.pdf")
	uid2 := DocumentUID("fred", "report.pdf")
	assert.Equal(t, uid1, uid2)
	assert.Len(t, uid1, 64)

	assert.NotEqual(t, uid1, DocumentUID("fred", "other.pdf"))
	assert.NotEqual(t, uid1, DocumentUID("alice", "report.pdf"))
}

func TestSanitizeFrontMetadata(t *testing.T) {
	out := SanitizeFrontMetadata(map[string]string{
		"agent name": "fred",
		"empty":      "",
		"blank":      "   ",
		"team":       "docs",
	})
	require.NotNil(t, out)
	assert.Equal(t, "fred", out["agent_name"])
	assert.Equal(t, "docs", out["team"])
	assert.NotContains(t, out, "empty")
	assert.NotContains(t, out, "blank")

	assert.Nil(t, SanitizeFrontMetadata(nil))
	assert.Nil(t, SanitizeFrontMetadata(map[string]string{"only": ""}))
}

func TestProcessMetadataCommonFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	md, err := ProcessMetadata(NewTextProcessor(), path, map[string]string{"agent_name": "fred"})
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", md.DocumentName)
	assert.Equal(t, DocumentUID("fred", "notes.txt"), md.DocumentUID)
	assert.True(t, md.Retrievable)
	assert.NotEmpty(t, md.DateAddedToKB)
	assert.Equal(t, "txt", md.Format)
	assert.Equal(t, "fred", md.FrontMetadata["agent_name"])
}

// Uploads without front metadata fall back to the shared "unknown" agent
// namespace, so their UIDs stay stable across requests.
func TestProcessMetadataDefaultsAgentName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	md, err := ProcessMetadata(NewTextProcessor(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, DocumentUID("unknown", "notes.txt"), md.DocumentUID)

	// A blank agent_name is sanitized away and lands in the same namespace.
	md2, err := ProcessMetadata(NewTextProcessor(), path, map[string]string{"agent_name": "   "})
	require.NoError(t, err)
	assert.Equal(t, md.DocumentUID, md2.DocumentUID)
}

func TestProcessMetadataRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))

	_, err := ProcessMetadata(NewTextProcessor(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validity")
}
