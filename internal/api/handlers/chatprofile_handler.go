package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docfoundry/knowflow/internal/services"
	"github.com/docfoundry/knowflow/internal/stores/chatprofile"
)

type ChatProfileHandler struct {
	profiles *services.ChatProfileService
}

func NewChatProfileHandler(svc *services.ChatProfileService) *ChatProfileHandler {
	return &ChatProfileHandler{profiles: svc}
}

func (h *ChatProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (h *ChatProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, chatprofile.ErrNotFound) {
			http.Error(w, "chat profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Create builds a new profile from a multipart request: title, description,
// creator fields plus repeated "files".
func (h *ChatProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	title, description, creator, files, cleanup, ok := h.parseProfileForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	profile, err := h.profiles.Create(r.Context(), title, description, creator, files)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusCreated, profile)
}

// GetMarkdownBundle returns the profile together with every bundled
// document's markdown, for conversational context injection.
func (h *ChatProfileHandler) GetMarkdownBundle(w http.ResponseWriter, r *http.Request) {
	view, err := h.profiles.GetWithMarkdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, chatprofile.ErrNotFound) {
			http.Error(w, "chat profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Update merges the uploads into an existing profile's bundle.
func (h *ChatProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	title, description, _, files, cleanup, ok := h.parseProfileForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	profile, err := h.profiles.Update(r.Context(), chi.URLParam(r, "id"), title, description, files)
	if err != nil {
		if errors.Is(err, chatprofile.ErrNotFound) {
			http.Error(w, "chat profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *ChatProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, chatprofile.ErrNotFound) {
			http.Error(w, "chat profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GetDocument returns one bundled document's markdown.
func (h *ChatProfileHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	markdown, err := h.profiles.GetDocument(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "docID"))
	if err != nil {
		if errors.Is(err, chatprofile.ErrNotFound) {
			http.Error(w, "profile document not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(markdown))
}

func (h *ChatProfileHandler) parseProfileForm(w http.ResponseWriter, r *http.Request) (title, description, creator string, files []services.UploadFile, cleanup func(), ok bool) {
	cleanup = func() {}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	title = r.FormValue("title")
	description = r.FormValue("description")
	creator = r.FormValue("creator")

	var opened []io.Closer
	cleanup = func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			http.Error(w, "could not read upload "+fh.Filename, http.StatusBadRequest)
			return "", "", "", nil, func() {}, false
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{Name: fh.Filename, Reader: f})
	}
	return title, description, creator, files, cleanup, true
}
