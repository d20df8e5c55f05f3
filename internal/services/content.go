package services

import (
	"context"
	"io"
	"mime"
	"path/filepath"

	"github.com/docfoundry/knowflow/internal/stores/content"
)

// ContentService exposes the stored artifacts of an ingested document.
type ContentService struct {
	content content.Store
}

func NewContentService(cs content.Store) *ContentService {
	return &ContentService{content: cs}
}

// GetMarkdown returns the converted markdown artifact.
func (s *ContentService) GetMarkdown(ctx context.Context, uid string) (string, error) {
	return s.content.GetMarkdown(ctx, uid)
}

// GetRawStream returns the original upload with its filename and a content
// type guessed from the extension.
func (s *ContentService) GetRawStream(ctx context.Context, uid string) (io.ReadCloser, string, string, error) {
	stream, filename, err := s.content.GetRawStream(ctx, uid)
	if err != nil {
		return nil, "", "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return stream, filename, contentType, nil
}
