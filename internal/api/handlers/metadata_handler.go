package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docfoundry/knowflow/internal/services"
	"github.com/docfoundry/knowflow/internal/stores/metadata"
)

type MetadataHandler struct {
	metadata *services.MetadataService
}

func NewMetadataHandler(svc *services.MetadataService) *MetadataHandler {
	return &MetadataHandler{metadata: svc}
}

func (h *MetadataHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	md, err := h.metadata.GetByUID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, md)
}

type updateDocumentRequest struct {
	Retrievable *bool `json:"retrievable"`
}

func (h *MetadataHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req updateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Retrievable == nil {
		http.Error(w, "body must contain a retrievable boolean", http.StatusBadRequest)
		return
	}

	md, err := h.metadata.SetRetrievable(r.Context(), uid, *req.Retrievable)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, md)
}

func (h *MetadataHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := h.metadata.Delete(r.Context(), uid); err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ListMetadata returns documents matching the nested filter map in the body.
// An empty body matches everything.
func (h *MetadataHandler) ListMetadata(w http.ResponseWriter, r *http.Request) {
	var filters map[string]any
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &filters); err != nil {
			http.Error(w, "invalid filter body", http.StatusBadRequest)
			return
		}
	}

	docs, err := h.metadata.GetAll(r.Context(), filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
