// Package app wires configuration, stores, processors and services into a
// running HTTP service. All dependencies are constructed once here and
// passed down explicitly; nothing reads global state after startup.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/core/chunker"
	"github.com/docfoundry/knowflow/internal/core/embed"
	"github.com/docfoundry/knowflow/internal/core/processor"
	"github.com/docfoundry/knowflow/internal/services"
	"github.com/docfoundry/knowflow/internal/stores"
	"github.com/docfoundry/knowflow/internal/stores/chatprofile"
	"github.com/docfoundry/knowflow/internal/stores/content"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
	"github.com/docfoundry/knowflow/internal/stores/vector"
)

type App struct {
	Config   *config.Config
	Embedder embed.Provider
	Registry *processor.Registry
	Server   *Server

	db *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var db *sql.DB
	if cfg.Settings.MetadataStorage.Type == "postgres" || cfg.Settings.VectorStorage.Type == "pgvector" {
		var err error
		db, err = stores.OpenPostgres(appCtx, cfg.Env.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("database initialized and ready")
	}

	metadataStore, err := metadata.New(cfg, db)
	if err != nil {
		return nil, err
	}
	contentStore, err := content.New(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	profileStore, err := chatprofile.New(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.New(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	vectorStore, err := vector.New(appCtx, cfg, db, embedder)
	if err != nil {
		return nil, err
	}

	splitter := chunker.New(cfg.Settings.Chunking.TargetTokens, cfg.Settings.Chunking.OverlapTokens)
	registry, err := processor.NewRegistry(cfg.Settings, processor.Deps{
		Metadata:  metadataStore,
		Vectors:   vectorStore,
		Embedder:  embedder,
		Chunker:   splitter,
		BatchSize: cfg.Settings.Chunking.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("build processor registry: %w", err)
	}
	log.Println("processor registry validated")

	ingestionSvc := services.NewIngestionService(registry, metadataStore, contentStore)
	metadataSvc := services.NewMetadataService(metadataStore, contentStore, vectorStore)
	contentSvc := services.NewContentService(contentStore)
	searchSvc := services.NewVectorSearchService(vectorStore, metadataStore)
	profileSvc := services.NewChatProfileService(registry, profileStore, cfg.Settings.ChatProfileMaxTokens)

	server := NewServer(cfg, ingestionSvc, metadataSvc, contentSvc, searchSvc, profileSvc)

	return &App{
		Config:   cfg,
		Embedder: embedder,
		Registry: registry,
		Server:   server,
		db:       db,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
