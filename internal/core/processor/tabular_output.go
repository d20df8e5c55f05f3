package processor

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docfoundry/knowflow/internal/models"
)

// TabularPipeline is the output stage for tabular artifacts: it re-parses
// the normalized table.csv to confirm the artifact is well-formed and
// reports the row count. Tabular documents are not embedded.
type TabularPipeline struct{}

func NewTabularPipeline() *TabularPipeline { return &TabularPipeline{} }

func (p *TabularPipeline) Process(_ context.Context, workDir string, md models.DocumentMetadata) (models.VectorizationResult, error) {
	f, err := os.Open(filepath.Join(workDir, "output", "table.csv"))
	if err != nil {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("load table artifact for %s: %w", md.DocumentUID, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("parse table artifact for %s: %w", md.DocumentUID, err)
	}
	if len(records) == 0 {
		return models.VectorizationResult{Status: models.StatusError},
			fmt.Errorf("table artifact for %s is empty", md.DocumentUID)
	}
	return models.VectorizationResult{Status: models.StatusSuccess, Chunks: len(records) - 1}, nil
}

var _ OutputProcessor = (*TabularPipeline)(nil)
