package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/docfoundry/knowflow/internal/models"
)

// DocxProcessor handles Word documents.
type DocxProcessor struct{}

func NewDocxProcessor() *DocxProcessor { return &DocxProcessor{} }

func (p *DocxProcessor) Capability() Capability { return CapMarkdown }

func (p *DocxProcessor) CheckFileValidity(path string) bool {
	return validOOXML(path, "wordprocessingml")
}

func (p *DocxProcessor) ExtractFileMetadata(path string) models.DocumentMetadata {
	md := models.DocumentMetadata{Format: "docx"}
	props, err := readCoreProps(path)
	if err != nil {
		md.Error = fmt.Sprintf("docx properties: %v", err)
		return md
	}
	md.Title = strings.TrimSpace(props.Title)
	md.Author = strings.TrimSpace(props.Creator)
	md.Subject = strings.TrimSpace(props.Subject)
	return md
}

func (p *DocxProcessor) ConvertToMarkdown(_ context.Context, path, outputDir string) error {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return fmt.Errorf("docx conversion: %w", err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return fmt.Errorf("docx conversion produced no text for %s", filepath.Base(path))
	}
	return writeMarkdown(outputDir, res.Body)
}

var _ MarkdownProcessor = (*DocxProcessor)(nil)
