package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/docfoundry/knowflow/internal/models"
)

// DocumentUID derives the dedup key for a logical document. It is a pure
// function of (agentName, documentName): re-ingesting the same document from
// the same agent always lands on the same UID.
func DocumentUID(agentName, documentName string) string {
	sum := sha256.Sum256([]byte(agentName + "::" + documentName))
	return hex.EncodeToString(sum[:])
}

// SanitizeFrontMetadata drops entries with empty values and replaces spaces
// in keys with underscores so keys stay filter-safe.
func SanitizeFrontMetadata(front map[string]string) map[string]string {
	if len(front) == 0 {
		return nil
	}
	out := make(map[string]string, len(front))
	for k, v := range front {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[strings.ReplaceAll(strings.TrimSpace(k), " ", "_")] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ProcessMetadata runs the shared intake flow for any input processor:
// validity check, format-specific extraction, common-field injection, UID
// computation and front-metadata merge. The returned metadata always carries
// a non-empty document_uid or an error is returned.
func ProcessMetadata(p InputProcessor, path string, front map[string]string) (models.DocumentMetadata, error) {
	if !p.CheckFileValidity(path) {
		return models.DocumentMetadata{}, fmt.Errorf("file %s failed validity check", filepath.Base(path))
	}

	md := p.ExtractFileMetadata(path)
	md.DocumentName = filepath.Base(path)
	md.DateAddedToKB = time.Now().UTC().Format(time.RFC3339)
	md.Retrievable = true

	sanitized := SanitizeFrontMetadata(front)
	md.FrontMetadata = sanitized

	// Uploads without an agent all share the same namespace so their UIDs
	// stay comparable across requests.
	agent := sanitized["agent_name"]
	if agent == "" {
		agent = "unknown"
	}
	md.DocumentUID = DocumentUID(agent, md.DocumentName)

	if md.DocumentUID == "" {
		return models.DocumentMetadata{}, fmt.Errorf("document %s has no document_uid after extraction", md.DocumentName)
	}
	return md, nil
}
