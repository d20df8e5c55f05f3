package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/docfoundry/knowflow/internal/services"
)

type VectorHandler struct {
	search *services.VectorSearchService
}

func NewVectorHandler(svc *services.VectorSearchService) *VectorHandler {
	return &VectorHandler{search: svc}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *VectorHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query must not be empty", http.StatusBadRequest)
		return
	}

	hits, err := h.search.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
