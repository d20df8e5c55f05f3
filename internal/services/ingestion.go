package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/docfoundry/knowflow/internal/core/processor"
	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/stores/content"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
)

// Ingestion pipeline step names, in execution order. These are the values
// callers see in the streamed progress events.
const (
	StepMetadataExtraction = "metadata extraction"
	StepKnowledgeExtract   = "document knowledge extraction"
	StepPostProcessing     = "knowledge post processing"
	StepMetadataSaving     = "metadata saving"
	StepContentSaving      = "raw content saving"
	StepDone               = "done"
)

// UploadFile is one file of an ingestion request.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// IngestionService drives the per-file pipeline: staging, metadata
// extraction, duplicate overwrite, conversion, post-processing and the two
// persistence steps.
type IngestionService struct {
	registry *processor.Registry
	metadata metadata.Store
	content  content.Store
}

func NewIngestionService(registry *processor.Registry, md metadata.Store, cs content.Store) *IngestionService {
	return &IngestionService{registry: registry, metadata: md, content: cs}
}

// Ingest processes all files sequentially and streams one progress event per
// completed stage on the returned channel. The channel carries a final
// {step: done} event whose status is success when at least one file made it
// through content saving, and is closed afterwards.
func (s *IngestionService) Ingest(ctx context.Context, files []UploadFile, front map[string]string) <-chan models.ProcessingProgress {
	events := make(chan models.ProcessingProgress, 8)

	go func() {
		defer close(events)

		succeeded := 0
		for _, file := range files {
			if err := s.ingestOne(ctx, file, front, events); err != nil {
				log.Printf("ingestion: %s failed: %v", file.Name, err)
				continue
			}
			succeeded++
		}

		// Aggregate outcome: partial success still counts as success.
		status := models.StatusSuccess
		if succeeded == 0 {
			status = models.StatusError
		}
		emit(ctx, events, models.ProcessingProgress{Step: StepDone, Status: status})
	}()

	return events
}

// ingestOne runs the full stage sequence for one file. Any stage failure
// emits an error event carrying the failing step and stops this file only.
func (s *IngestionService) ingestOne(ctx context.Context, file UploadFile, front map[string]string, events chan<- models.ProcessingProgress) error {
	workDir, inputPath, err := s.stage(file)
	if err != nil {
		emit(ctx, events, errEvent(StepMetadataExtraction, file.Name, "", err))
		return err
	}
	defer os.RemoveAll(workDir)

	// Metadata extraction.
	input, err := s.registry.Input(file.Name)
	if err != nil {
		emit(ctx, events, errEvent(StepMetadataExtraction, file.Name, "", err))
		return err
	}
	md, err := processor.ProcessMetadata(input, inputPath, front)
	if err != nil {
		emit(ctx, events, errEvent(StepMetadataExtraction, file.Name, "", err))
		return err
	}
	emit(ctx, events, models.ProcessingProgress{
		Step: StepMetadataExtraction, Filename: file.Name,
		Status: models.StatusSuccess, DocumentUID: md.DocumentUID,
	})

	// Duplicate overwrite: drop the previous generation so re-ingestion
	// replaces instead of accumulating. This delete-then-recreate pair is
	// not serialized against concurrent ingestions of the same UID.
	if _, getErr := s.metadata.GetByUID(ctx, md.DocumentUID); getErr == nil {
		log.Printf("ingestion: %s already ingested, replacing", md.DocumentUID)
		if err := s.metadata.Delete(ctx, models.DocumentMetadata{DocumentUID: md.DocumentUID}); err != nil && !errors.Is(err, metadata.ErrNotFound) {
			emit(ctx, events, errEvent(StepMetadataExtraction, file.Name, md.DocumentUID, err))
			return err
		}
		if err := s.content.Delete(ctx, md.DocumentUID); err != nil && !errors.Is(err, content.ErrNotFound) {
			emit(ctx, events, errEvent(StepMetadataExtraction, file.Name, md.DocumentUID, err))
			return err
		}
	} else if !errors.Is(getErr, metadata.ErrNotFound) {
		emit(ctx, events, errEvent(StepMetadataExtraction, file.Name, md.DocumentUID, getErr))
		return getErr
	}

	// Conversion.
	outputDir := filepath.Join(workDir, "output")
	if err := s.convert(ctx, input, inputPath, outputDir); err != nil {
		emit(ctx, events, errEvent(StepKnowledgeExtract, file.Name, md.DocumentUID, err))
		return err
	}
	emit(ctx, events, models.ProcessingProgress{
		Step: StepKnowledgeExtract, Filename: file.Name,
		Status: models.StatusSuccess, DocumentUID: md.DocumentUID,
	})

	// Post-processing.
	result, err := s.registry.Output(file.Name).Process(ctx, workDir, md)
	if err != nil {
		emit(ctx, events, errEvent(StepPostProcessing, file.Name, md.DocumentUID, err))
		return err
	}
	emit(ctx, events, models.ProcessingProgress{
		Step: StepPostProcessing, Filename: file.Name,
		Status: result.Status, DocumentUID: md.DocumentUID, Chunks: result.Chunks,
	})

	// Metadata saving: a metadata.json snapshot lands in the working
	// directory so the content tree is self-describing, then the record is
	// upserted in the metadata store.
	if err := writeMetadataSnapshot(workDir, md); err != nil {
		emit(ctx, events, errEvent(StepMetadataSaving, file.Name, md.DocumentUID, err))
		return err
	}
	if err := s.metadata.Save(ctx, md); err != nil {
		emit(ctx, events, errEvent(StepMetadataSaving, file.Name, md.DocumentUID, err))
		return err
	}
	emit(ctx, events, models.ProcessingProgress{
		Step: StepMetadataSaving, Filename: file.Name,
		Status: models.StatusSuccess, DocumentUID: md.DocumentUID,
	})

	// Content saving.
	if err := s.content.Save(ctx, md.DocumentUID, workDir); err != nil {
		emit(ctx, events, errEvent(StepContentSaving, file.Name, md.DocumentUID, err))
		return err
	}
	emit(ctx, events, models.ProcessingProgress{
		Step: StepContentSaving, Filename: file.Name,
		Status: models.StatusSuccess, DocumentUID: md.DocumentUID,
	})
	return nil
}

// stage copies the upload into a fresh working directory under input/.
func (s *IngestionService) stage(file UploadFile) (workDir, inputPath string, err error) {
	workDir, err = os.MkdirTemp("", "knowflow-ingest-*")
	if err != nil {
		return "", "", fmt.Errorf("create working dir: %w", err)
	}
	inputDir := filepath.Join(workDir, "input")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		os.RemoveAll(workDir)
		return "", "", fmt.Errorf("create input dir: %w", err)
	}
	inputPath = filepath.Join(inputDir, filepath.Base(file.Name))
	dst, err := os.Create(inputPath)
	if err != nil {
		os.RemoveAll(workDir)
		return "", "", fmt.Errorf("stage %s: %w", file.Name, err)
	}
	if _, err := io.Copy(dst, file.Reader); err != nil {
		_ = dst.Close()
		os.RemoveAll(workDir)
		return "", "", fmt.Errorf("stage %s: %w", file.Name, err)
	}
	if err := dst.Close(); err != nil {
		os.RemoveAll(workDir)
		return "", "", err
	}
	return workDir, inputPath, nil
}

// convert branches on the processor's declared capability. Tabular output
// is normalized into output/table.csv so downstream stages see one artifact
// shape per category.
func (s *IngestionService) convert(ctx context.Context, input processor.InputProcessor, inputPath, outputDir string) error {
	switch input.Capability() {
	case processor.CapMarkdown:
		mp, ok := input.(processor.MarkdownProcessor)
		if !ok {
			return fmt.Errorf("processor for %s cannot convert to markdown", filepath.Base(inputPath))
		}
		return mp.ConvertToMarkdown(ctx, inputPath, outputDir)
	case processor.CapTabular:
		tp, ok := input.(processor.TabularProcessor)
		if !ok {
			return fmt.Errorf("processor for %s cannot convert to table", filepath.Base(inputPath))
		}
		table, err := tp.ConvertToTable(ctx, inputPath)
		if err != nil {
			return err
		}
		return table.WriteCSV(outputDir)
	default:
		return fmt.Errorf("processor for %s has unknown capability", filepath.Base(inputPath))
	}
}

func writeMetadataSnapshot(workDir string, md models.DocumentMetadata) error {
	raw, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(workDir, "metadata.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write metadata snapshot: %w", err)
	}
	return nil
}

func errEvent(step, filename, uid string, err error) models.ProcessingProgress {
	return models.ProcessingProgress{
		Step: step, Filename: filename, Status: models.StatusError,
		DocumentUID: uid, Error: err.Error(),
	}
}

func emit(ctx context.Context, events chan<- models.ProcessingProgress, ev models.ProcessingProgress) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
