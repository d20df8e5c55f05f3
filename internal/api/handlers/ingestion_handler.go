package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/docfoundry/knowflow/internal/models"
	"github.com/docfoundry/knowflow/internal/services"
)

const maxUploadBytes = 256 << 20

type IngestionHandler struct {
	ingestion *services.IngestionService
}

func NewIngestionHandler(svc *services.IngestionService) *IngestionHandler {
	return &IngestionHandler{ingestion: svc}
}

// ProcessFiles accepts a multipart upload (field "files", repeated, plus an
// optional "metadata_json" blob) and streams newline-delimited JSON progress
// events. The status code commits once the first file survives content
// saving: 200 then, 422 if the whole batch fails. Events produced before the
// commit point are buffered and replayed in order.
func (h *IngestionHandler) ProcessFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	front := map[string]string{}
	if raw := r.FormValue("metadata_json"); raw != "" {
		var blob map[string]any
		if err := json.Unmarshal([]byte(raw), &blob); err != nil {
			http.Error(w, "invalid metadata_json", http.StatusBadRequest)
			return
		}
		for k, v := range blob {
			front[k] = fmt.Sprintf("%v", v)
		}
	}

	files := make([]services.UploadFile, 0, len(headers))
	var opened []io.Closer
	defer func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "could not read upload "+fh.Filename, http.StatusBadRequest)
			return
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{Name: fh.Filename, Reader: f})
	}

	events := h.ingestion.Ingest(r.Context(), files, front)

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	writeEvent := func(ev models.ProcessingProgress) {
		if err := enc.Encode(ev); err != nil {
			log.Printf("ingestion: stream write failed: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	committed := false
	var buffered []models.ProcessingProgress
	for ev := range events {
		if committed {
			writeEvent(ev)
			continue
		}
		buffered = append(buffered, ev)
		if ev.Step == services.StepContentSaving && ev.Status == models.StatusSuccess {
			w.WriteHeader(http.StatusOK)
			committed = true
			for _, b := range buffered {
				writeEvent(b)
			}
			buffered = nil
		}
	}

	if !committed {
		w.WriteHeader(http.StatusUnprocessableEntity)
		for _, b := range buffered {
			writeEvent(b)
		}
	}
}
