// Package content persists the raw working directory of each ingested
// document: the original upload under input/, the converted artifact under
// output/ and the metadata.json snapshot.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docfoundry/knowflow/internal/config"
)

// ErrNotFound reports a UID with no stored content tree.
var ErrNotFound = errors.New("document content not found")

// Store mirrors a document's working directory under the UID key.
// Save replaces any existing tree for the UID before copying the new one.
type Store interface {
	// Save mirrors dir (input/, output/, metadata.json) under documentUID,
	// deleting any previously stored tree first.
	Save(ctx context.Context, documentUID, dir string) error
	Delete(ctx context.Context, documentUID string) error
	// GetRawStream returns the first file under the input/ subpath together
	// with its stored filename.
	GetRawStream(ctx context.Context, documentUID string) (io.ReadCloser, string, error)
	// GetMarkdown returns the contents of output/output.md.
	GetMarkdown(ctx context.Context, documentUID string) (string, error)
}

// New selects the content backend from configuration.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Settings.ContentStorage.Type {
	case "local":
		return NewLocalStore(cfg.Env.ContentRoot)
	case "s3":
		return NewS3Store(ctx, cfg.Env)
	default:
		return nil, fmt.Errorf("unsupported content storage backend: %q", cfg.Settings.ContentStorage.Type)
	}
}
