package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/docfoundry/knowflow/internal/models"
)

// PptxProcessor handles PowerPoint decks.
type PptxProcessor struct{}

func NewPptxProcessor() *PptxProcessor { return &PptxProcessor{} }

func (p *PptxProcessor) Capability() Capability { return CapMarkdown }

func (p *PptxProcessor) CheckFileValidity(path string) bool {
	return validOOXML(path, "presentationml")
}

func (p *PptxProcessor) ExtractFileMetadata(path string) models.DocumentMetadata {
	md := models.DocumentMetadata{Format: "pptx"}
	props, err := readCoreProps(path)
	if err != nil {
		md.Error = fmt.Sprintf("pptx properties: %v", err)
		return md
	}
	md.Title = strings.TrimSpace(props.Title)
	md.Author = strings.TrimSpace(props.Creator)
	md.Subject = strings.TrimSpace(props.Subject)
	return md
}

func (p *PptxProcessor) ConvertToMarkdown(_ context.Context, path, outputDir string) error {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return fmt.Errorf("pptx conversion: %w", err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return fmt.Errorf("pptx conversion produced no text for %s", filepath.Base(path))
	}
	return writeMarkdown(outputDir, res.Body)
}

var _ MarkdownProcessor = (*PptxProcessor)(nil)
