package processor

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/docfoundry/knowflow/internal/models"
)

// XLSXProcessor reads the first sheet of an Excel workbook.
type XLSXProcessor struct{}

func NewXLSXProcessor() *XLSXProcessor { return &XLSXProcessor{} }

func (p *XLSXProcessor) Capability() Capability { return CapTabular }

func (p *XLSXProcessor) CheckFileValidity(path string) bool {
	rows, err := readFirstSheet(path)
	return err == nil && len(rows) > 0
}

func (p *XLSXProcessor) ExtractFileMetadata(path string) models.DocumentMetadata {
	md := models.DocumentMetadata{Format: "xlsx"}
	rows, err := readFirstSheet(path)
	if err != nil {
		md.Error = fmt.Sprintf("xlsx parse: %v", err)
		return md
	}
	if len(rows) == 0 {
		md.Error = "xlsx first sheet is empty"
		return md
	}
	md.NumColumns = len(rows[0])
	md.RowCount = len(rows) - 1
	return md
}

func (p *XLSXProcessor) ConvertToTable(_ context.Context, path string) (Table, error) {
	rows, err := readFirstSheet(path)
	if err != nil {
		return Table{}, fmt.Errorf("xlsx conversion: %w", err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("xlsx file %s has no rows", path)
	}
	// Pad ragged rows to header width so the CSV artifact stays rectangular.
	width := len(rows[0])
	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < width {
			row = append(row, "")
		}
		body = append(body, row[:width])
	}
	return Table{Columns: rows[0], Rows: body}, nil
}

func readFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

var _ TabularProcessor = (*XLSXProcessor)(nil)
