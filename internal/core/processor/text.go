package processor

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/docfoundry/knowflow/internal/models"
)

// TextProcessor passes plain text and markdown files through unchanged.
// The format label distinguishes .txt from .md in stored metadata.
type TextProcessor struct {
	format string
}

func NewTextProcessor() *TextProcessor     { return &TextProcessor{format: "txt"} }
func NewMarkdownProcessor() *TextProcessor { return &TextProcessor{format: "md"} }

func (p *TextProcessor) Capability() Capability { return CapMarkdown }

func (p *TextProcessor) CheckFileValidity(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return utf8.Valid(raw)
}

func (p *TextProcessor) ExtractFileMetadata(_ string) models.DocumentMetadata {
	return models.DocumentMetadata{Format: p.format}
}

func (p *TextProcessor) ConvertToMarkdown(_ context.Context, path, outputDir string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s source: %w", p.format, err)
	}
	return writeMarkdown(outputDir, string(raw))
}

var _ MarkdownProcessor = (*TextProcessor)(nil)
