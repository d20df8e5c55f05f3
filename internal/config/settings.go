package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProcessorEntry maps one file extension to a builtin processor key
// (e.g. ".pdf" -> "pdf_markdown"). The registry resolves and validates
// every entry at startup; a bad entry is a fatal configuration error.
type ProcessorEntry struct {
	Prefix    string `yaml:"prefix"`
	Processor string `yaml:"processor"`
}

// StorageBackend selects one backend implementation per store concern.
// At most one backend is active per concern and it is never switched at
// runtime.
type StorageBackend struct {
	Type string `yaml:"type"`
}

// Chunking tunes the vectorization splitter.
//
// TargetTokens:  approximate tokens per chunk.
// OverlapTokens: tokens retained from the previous chunk's tail to preserve
// cross-chunk continuity.
// BatchSize:     chunks embedded and written per vector-store call.
type Chunking struct {
	TargetTokens  int `yaml:"target_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
	BatchSize     int `yaml:"batch_size"`
}

// Settings is the declarative part of the configuration, parsed from YAML.
type Settings struct {
	InputProcessors  []ProcessorEntry `yaml:"input_processors"`
	OutputProcessors []ProcessorEntry `yaml:"output_processors"`

	ContentStorage     StorageBackend `yaml:"content_storage"`
	MetadataStorage    StorageBackend `yaml:"metadata_storage"`
	VectorStorage      StorageBackend `yaml:"vector_storage"`
	ChatProfileStorage StorageBackend `yaml:"chat_profile_storage"`
	Embedding          StorageBackend `yaml:"embedding"`

	VectorIndexName      string   `yaml:"vector_index_name"`
	Chunking             Chunking `yaml:"chunking"`
	ChatProfileMaxTokens int      `yaml:"chat_profile_max_tokens"`
}

// LoadSettings reads the YAML settings from path. A missing file yields the
// defaults so local development works without any configuration.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	applyDefaults(&s)
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultSettings is the all-local profile: filesystem stores, in-memory
// vectors, deterministic local embedder, every builtin processor registered.
func DefaultSettings() *Settings {
	s := &Settings{
		InputProcessors: []ProcessorEntry{
			{Prefix: ".pdf", Processor: "pdf_markdown"},
			{Prefix: ".docx", Processor: "docx_markdown"},
			{Prefix: ".pptx", Processor: "pptx_markdown"},
			{Prefix: ".txt", Processor: "text_markdown"},
			{Prefix: ".md", Processor: "markdown_markdown"},
			{Prefix: ".csv", Processor: "csv_tabular"},
			{Prefix: ".xlsx", Processor: "xlsx_tabular"},
		},
		ContentStorage:     StorageBackend{Type: "local"},
		MetadataStorage:    StorageBackend{Type: "local"},
		VectorStorage:      StorageBackend{Type: "in_memory"},
		ChatProfileStorage: StorageBackend{Type: "local"},
		Embedding:          StorageBackend{Type: "local"},
	}
	applyDefaults(s)
	return s
}

func applyDefaults(s *Settings) {
	if s.VectorIndexName == "" {
		s.VectorIndexName = "knowflow-vectors"
	}
	if s.Chunking.TargetTokens == 0 {
		s.Chunking.TargetTokens = 500
	}
	if s.Chunking.OverlapTokens == 0 {
		s.Chunking.OverlapTokens = 50
	}
	if s.Chunking.BatchSize == 0 {
		s.Chunking.BatchSize = 16
	}
	if s.ChatProfileMaxTokens == 0 {
		s.ChatProfileMaxTokens = 40000
	}
}

func (s *Settings) validate() error {
	if len(s.InputProcessors) == 0 {
		return errors.New("settings: no input processors configured")
	}
	for _, e := range s.InputProcessors {
		if e.Prefix == "" || e.Processor == "" {
			return fmt.Errorf("settings: incomplete input processor entry %+v", e)
		}
	}
	for _, e := range s.OutputProcessors {
		if e.Prefix == "" || e.Processor == "" {
			return fmt.Errorf("settings: incomplete output processor entry %+v", e)
		}
	}
	return nil
}

// Config bundles the environment and the declarative settings; it is built
// once in main and passed by reference to every component that needs it.
type Config struct {
	Env      *Env
	Settings *Settings
}

// Load builds the full configuration from the environment and the YAML
// settings file named by KNOWFLOW_SETTINGS (default ./configuration.yaml).
func Load() (*Config, error) {
	env := LoadEnv()
	settings, err := LoadSettings(getEnv("KNOWFLOW_SETTINGS", "configuration.yaml"))
	if err != nil {
		return nil, err
	}
	return &Config{Env: env, Settings: settings}, nil
}
