package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docfoundry/knowflow/internal/services"
	"github.com/docfoundry/knowflow/internal/stores/content"
)

type ContentHandler struct {
	content *services.ContentService
}

func NewContentHandler(svc *services.ContentService) *ContentHandler {
	return &ContentHandler{content: svc}
}

func (h *ContentHandler) GetMarkdown(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	markdown, err := h.content.GetMarkdown(r.Context(), uid)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, "document content not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(markdown))
}

// GetRawContent streams the original upload as an attachment.
func (h *ContentHandler) GetRawContent(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	stream, filename, contentType, err := h.content.GetRawStream(r.Context(), uid)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, "document content not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, stream); err != nil {
		log.Printf("content: raw stream for %s interrupted: %v", uid, err)
	}
}
