package processor

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/docfoundry/knowflow/internal/models"
)

// CSVProcessor parses delimited files into the normalized table artifact.
type CSVProcessor struct{}

func NewCSVProcessor() *CSVProcessor { return &CSVProcessor{} }

func (p *CSVProcessor) Capability() Capability { return CapTabular }

func (p *CSVProcessor) CheckFileValidity(path string) bool {
	records, err := readCSV(path)
	return err == nil && len(records) > 0
}

func (p *CSVProcessor) ExtractFileMetadata(path string) models.DocumentMetadata {
	md := models.DocumentMetadata{Format: "csv"}
	records, err := readCSV(path)
	if err != nil {
		md.Error = fmt.Sprintf("csv parse: %v", err)
		return md
	}
	if len(records) == 0 {
		md.Error = "csv file is empty"
		return md
	}
	md.NumColumns = len(records[0])
	md.RowCount = len(records) - 1
	return md
}

func (p *CSVProcessor) ConvertToTable(_ context.Context, path string) (Table, error) {
	records, err := readCSV(path)
	if err != nil {
		return Table{}, fmt.Errorf("csv conversion: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv file %s has no rows", path)
	}
	return Table{Columns: records[0], Rows: records[1:]}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Ragged rows are tolerated; the table keeps them as parsed.
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

var _ TabularProcessor = (*CSVProcessor)(nil)
