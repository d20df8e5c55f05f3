package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/docfoundry/knowflow/internal/models"
)

// PDFProcessor validates with pdfcpu and converts with docconv.
type PDFProcessor struct {
	conf *model.Configuration
}

func NewPDFProcessor() *PDFProcessor {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return &PDFProcessor{conf: cfg}
}

func (p *PDFProcessor) Capability() Capability { return CapMarkdown }

func (p *PDFProcessor) CheckFileValidity(path string) bool {
	if err := api.ValidateFile(path, p.conf); err != nil {
		return false
	}
	n, err := api.PageCountFile(path)
	return err == nil && n > 0
}

func (p *PDFProcessor) ExtractFileMetadata(path string) models.DocumentMetadata {
	md := models.DocumentMetadata{Format: "pdf"}

	n, err := api.PageCountFile(path)
	if err != nil {
		md.Error = fmt.Sprintf("pdf page count: %v", err)
		return md
	}
	md.NumPages = n

	res, err := docconv.ConvertPath(path)
	if err != nil {
		md.Error = fmt.Sprintf("pdf properties: %v", err)
		return md
	}
	md.Title = strings.TrimSpace(res.Meta["Title"])
	md.Author = strings.TrimSpace(res.Meta["Author"])
	md.Subject = strings.TrimSpace(res.Meta["Subject"])
	return md
}

func (p *PDFProcessor) ConvertToMarkdown(_ context.Context, path, outputDir string) error {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return fmt.Errorf("pdf conversion: %w", err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return fmt.Errorf("pdf conversion produced no text for %s", filepath.Base(path))
	}
	return writeMarkdown(outputDir, res.Body)
}

// writeMarkdown persists body as outputDir/output.md.
func writeMarkdown(outputDir, body string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "output.md"), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write output.md: %w", err)
	}
	return nil
}

var _ MarkdownProcessor = (*PDFProcessor)(nil)
