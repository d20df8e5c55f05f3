package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/docfoundry/knowflow/internal/api/handlers"
	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	ingestionSvc *services.IngestionService,
	metadataSvc *services.MetadataService,
	contentSvc *services.ContentService,
	searchSvc *services.VectorSearchService,
	profileSvc *services.ChatProfileService,
) *Server {
	ingestionHandler := handlers.NewIngestionHandler(ingestionSvc)
	metadataHandler := handlers.NewMetadataHandler(metadataSvc)
	contentHandler := handlers.NewContentHandler(contentSvc)
	vectorHandler := handlers.NewVectorHandler(searchSvc)
	profileHandler := handlers.NewChatProfileHandler(profileSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Ingestion streams progress for the whole batch; the timeout has to
	// cover conversion and embedding of every file.
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/process-files", ingestionHandler.ProcessFiles)

		api.Get("/document/{uid}", metadataHandler.GetDocument)
		api.Put("/document/{uid}", metadataHandler.UpdateDocument)
		api.Delete("/document/{uid}", metadataHandler.DeleteDocument)
		api.Post("/documents/metadata", metadataHandler.ListMetadata)

		api.Get("/markdown/{uid}", contentHandler.GetMarkdown)
		api.Get("/raw_content/{uid}", contentHandler.GetRawContent)

		api.Post("/vector/search", vectorHandler.Search)

		api.Get("/chat-profiles", profileHandler.List)
		api.Post("/chat-profiles", profileHandler.Create)
		api.Get("/chat-profiles/{id}", profileHandler.Get)
		api.Put("/chat-profiles/{id}", profileHandler.Update)
		api.Delete("/chat-profiles/{id}", profileHandler.Delete)
		api.Get("/chat-profiles/{id}/markdown", profileHandler.GetMarkdownBundle)
		api.Get("/chat-profiles/{id}/documents/{docID}", profileHandler.GetDocument)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Env.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
