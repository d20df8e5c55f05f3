package models

import (
	"encoding/json"
	"time"
)

// Status reports the outcome of a pipeline stage or API operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusIgnored Status = "ignored"
	StatusError   Status = "error"
)

// DocumentMetadata is the canonical record for an ingested file.
// DocumentUID is a deterministic hash of (agent name, document name) and is
// the dedup key: re-ingesting the same logical document overwrites the
// previous generation instead of accumulating duplicates.
type DocumentMetadata struct {
	DocumentUID   string `json:"document_uid"`
	DocumentName  string `json:"document_name"`
	DateAddedToKB string `json:"date_added_to_kb,omitempty"`
	Retrievable   bool   `json:"retrievable"`

	// Format-specific fields, populated by the input processor.
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Subject    string `json:"subject,omitempty"`
	NumPages   int    `json:"num_pages,omitempty"`
	Format     string `json:"format,omitempty"`
	RowCount   int    `json:"row_count,omitempty"`
	NumColumns int    `json:"num_columns,omitempty"`

	// Error carries a partial extraction failure without aborting ingestion.
	Error string `json:"error,omitempty"`

	// FrontMetadata is the caller-supplied key/value bag, sanitized on intake.
	FrontMetadata map[string]string `json:"front_metadata,omitempty"`
}

// AsMap returns the metadata as a generic nested map, the shape the store
// filter matcher operates on.
func (m DocumentMetadata) AsMap() map[string]any {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// DocumentChunk is a bounded fragment of the converted artifact, the unit of
// embedding and vector storage. Chunks carry a copy of the parent metadata.
type DocumentChunk struct {
	DocumentUID string           `json:"document_uid"`
	Position    int              `json:"position"`
	Text        string           `json:"text"`
	TokenCount  int              `json:"token_count"`
	Embedding   []float32        `json:"-"`
	Metadata    DocumentMetadata `json:"metadata"`
}

// SearchHit is one ranked similarity-search result.
type SearchHit struct {
	Chunk          DocumentChunk `json:"chunk"`
	Score          float32       `json:"score"`
	Rank           int           `json:"rank"`
	EmbeddingModel string        `json:"embedding_model"`
	VectorIndex    string        `json:"vector_index"`
	RetrievedAt    time.Time     `json:"retrieved_at"`
}

// ProcessingProgress is one newline-delimited JSON event streamed to the
// caller during ingestion.
type ProcessingProgress struct {
	Step        string `json:"step"`
	Filename    string `json:"filename,omitempty"`
	Status      Status `json:"status"`
	DocumentUID string `json:"document_uid,omitempty"`
	Chunks      int    `json:"chunks,omitempty"`
	Error       string `json:"error,omitempty"`
}

// VectorizationResult reports the outcome of an output processor run.
type VectorizationResult struct {
	Status Status `json:"status"`
	Chunks int    `json:"chunks"`
}

// ChatProfileDocument tracks one document inside a chat profile bundle.
type ChatProfileDocument struct {
	ID           string `json:"id"`
	DocumentName string `json:"document_name"`
	DocumentType string `json:"document_type"`
	Size         int64  `json:"size,omitempty"`
	Tokens       int    `json:"tokens"`
}

// ChatProfile is a named, token-bounded bundle of pre-converted documents
// for conversational context injection. Tokens is the sum of the per-document
// counts and must stay under the configured ceiling.
type ChatProfile struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
	Creator     string                `json:"creator"`
	Tokens      int                   `json:"tokens"`
	Documents   []ChatProfileDocument `json:"documents"`
}
