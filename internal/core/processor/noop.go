package processor

import (
	"context"

	"github.com/docfoundry/knowflow/internal/models"
)

// NoopProcessor accepts the artifact without any post-processing. It exists
// for registrations that only want conversion and storage.
type NoopProcessor struct{}

func NewNoopProcessor() *NoopProcessor { return &NoopProcessor{} }

func (p *NoopProcessor) Process(_ context.Context, _ string, _ models.DocumentMetadata) (models.VectorizationResult, error) {
	return models.VectorizationResult{Status: models.StatusSuccess}, nil
}

var _ OutputProcessor = (*NoopProcessor)(nil)
