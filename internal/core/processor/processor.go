// Package processor holds the per-format input processors, the output
// pipelines that consume their artifacts, and the registry that binds file
// extensions to both.
package processor

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docfoundry/knowflow/internal/models"
)

// Capability is the output shape an input processor produces. It is a closed
// set: the orchestrator branches on it instead of inspecting concrete types.
type Capability int

const (
	CapMarkdown Capability = iota
	CapTabular
)

// InputProcessor is the per-format intake contract. Implementations also
// satisfy exactly one of MarkdownProcessor or TabularProcessor, matching
// their declared Capability.
type InputProcessor interface {
	Capability() Capability
	// CheckFileValidity reports whether the file is structurally sound.
	// It never returns an error; malformed input is simply false.
	CheckFileValidity(path string) bool
	// ExtractFileMetadata pulls format-specific fields. Partial failure is
	// recorded in the Error field rather than returned.
	ExtractFileMetadata(path string) models.DocumentMetadata
}

// MarkdownProcessor converts the file into outputDir/output.md.
type MarkdownProcessor interface {
	InputProcessor
	ConvertToMarkdown(ctx context.Context, path, outputDir string) error
}

// TabularProcessor converts the file into an in-memory table.
type TabularProcessor interface {
	InputProcessor
	ConvertToTable(ctx context.Context, path string) (Table, error)
}

// OutputProcessor consumes the converted artifact under workDir/output/.
type OutputProcessor interface {
	Process(ctx context.Context, workDir string, md models.DocumentMetadata) (models.VectorizationResult, error)
}

// Table is the normalized tabular artifact.
type Table struct {
	Columns []string
	Rows    [][]string
}

// WriteCSV persists the table as outputDir/table.csv, header first.
func (t Table) WriteCSV(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(outputDir, "table.csv"))
	if err != nil {
		return fmt.Errorf("create table.csv: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
