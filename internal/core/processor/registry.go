package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/core/chunker"
	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

// Deps carries the collaborators output processors are built with.
type Deps struct {
	Metadata  metadata.Store
	Vectors   vector.Store
	Embedder  embed.Provider
	Chunker   *chunker.Chunker
	BatchSize int
}

// Builtin symbolic keys. Configuration refers to processors by these names;
// an unknown or capability-mismatched key fails registry construction.
var inputBuilders = map[string]func() InputProcessor{
	"pdf_markdown":      func() InputProcessor { return NewPDFProcessor() },
	"docx_markdown":     func() InputProcessor { return NewDocxProcessor() },
	"pptx_markdown":     func() InputProcessor { return NewPptxProcessor() },
	"text_markdown":     func() InputProcessor { return NewTextProcessor() },
	"markdown_markdown": func() InputProcessor { return NewMarkdownProcessor() },
	"csv_tabular":       func() InputProcessor { return NewCSVProcessor() },
	"xlsx_tabular":      func() InputProcessor { return NewXLSXProcessor() },
}

var outputBuilders = map[string]func(Deps) OutputProcessor{
	"vectorization": func(d Deps) OutputProcessor {
		return NewVectorizer(d.Metadata, d.Vectors, d.Embedder, d.Chunker, d.BatchSize)
	},
	"tabular": func(Deps) OutputProcessor { return NewTabularPipeline() },
	"noop":    func(Deps) OutputProcessor { return NewNoopProcessor() },
}

// Category fallback for output resolution: extensions without an explicit
// output registration route to the default pipeline of their category.
var markdownCategory = map[string]bool{
	".pdf": true, ".docx": true, ".pptx": true, ".txt": true, ".md": true,
}

var tabularCategory = map[string]bool{
	".csv": true, ".xlsx": true, ".xls": true, ".xlsm": true,
}

// Registry resolves file extensions to processor instances. Instances are
// constructed once at startup and shared across requests.
type Registry struct {
	inputs  map[string]InputProcessor
	outputs map[string]OutputProcessor

	vectorization OutputProcessor
	tabular       OutputProcessor
	noop          OutputProcessor
}

// NewRegistry builds and validates the full registry. Every configured entry
// must name a known builtin key whose capability matches its interface, and
// all instances are constructed here so a bad registration fails startup
// rather than the first request.
func NewRegistry(settings *config.Settings, deps Deps) (*Registry, error) {
	r := &Registry{
		inputs:  make(map[string]InputProcessor),
		outputs: make(map[string]OutputProcessor),
	}

	inputCache := make(map[string]InputProcessor)
	for _, entry := range settings.InputProcessors {
		build, ok := inputBuilders[entry.Processor]
		if !ok {
			return nil, fmt.Errorf("registry: unknown input processor %q for %q", entry.Processor, entry.Prefix)
		}
		inst, cached := inputCache[entry.Processor]
		if !cached {
			inst = build()
			if err := checkCapability(entry.Processor, inst); err != nil {
				return nil, err
			}
			inputCache[entry.Processor] = inst
		}
		r.inputs[strings.ToLower(entry.Prefix)] = inst
	}

	outputCache := make(map[string]OutputProcessor)
	buildOutput := func(key string) (OutputProcessor, error) {
		if inst, ok := outputCache[key]; ok {
			return inst, nil
		}
		build, ok := outputBuilders[key]
		if !ok {
			return nil, fmt.Errorf("registry: unknown output processor %q", key)
		}
		inst := build(deps)
		outputCache[key] = inst
		return inst, nil
	}

	for _, entry := range settings.OutputProcessors {
		inst, err := buildOutput(entry.Processor)
		if err != nil {
			return nil, fmt.Errorf("%w for %q", err, entry.Prefix)
		}
		r.outputs[strings.ToLower(entry.Prefix)] = inst
	}

	var err error
	if r.vectorization, err = buildOutput("vectorization"); err != nil {
		return nil, err
	}
	if r.tabular, err = buildOutput("tabular"); err != nil {
		return nil, err
	}
	if r.noop, err = buildOutput("noop"); err != nil {
		return nil, err
	}
	return r, nil
}

// checkCapability verifies the instance implements the conversion interface
// its declared capability promises.
func checkCapability(key string, p InputProcessor) error {
	switch p.Capability() {
	case CapMarkdown:
		if _, ok := p.(MarkdownProcessor); !ok {
			return fmt.Errorf("registry: processor %q declares markdown capability but does not convert to markdown", key)
		}
	case CapTabular:
		if _, ok := p.(TabularProcessor); !ok {
			return fmt.Errorf("registry: processor %q declares tabular capability but does not convert to table", key)
		}
	default:
		return fmt.Errorf("registry: processor %q has unknown capability", key)
	}
	return nil
}

// Input resolves the processor for a filename. An unregistered extension is
// a hard error.
func (r *Registry) Input(filename string) (InputProcessor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	p, ok := r.inputs[ext]
	if !ok {
		return nil, fmt.Errorf("no input processor found for extension %q", ext)
	}
	return p, nil
}

// Output resolves the post-processing pipeline for a filename. Extensions
// without an explicit registration fall back by category; anything else gets
// the no-op pipeline.
func (r *Registry) Output(filename string) OutputProcessor {
	ext := strings.ToLower(filepath.Ext(filename))
	if p, ok := r.outputs[ext]; ok {
		return p
	}
	switch {
	case markdownCategory[ext]:
		return r.vectorization
	case tabularCategory[ext]:
		return r.tabular
	default:
		return r.noop
	}
}
