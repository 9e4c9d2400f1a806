package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/export"
	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

func (h *Handler) HandleBatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.batchStore.List())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleBatchDetail serves /api/batches/{id} and /api/batches/{id}/marc
func (h *Handler) HandleBatchDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/batches/")
	id, sub, _ := strings.Cut(path, "/")

	batch, ok := h.getBatchOrError(w, id)
	if !ok {
		return
	}

	switch {
	case sub == "" && r.Method == "GET":
		h.writeJSON(w, batch)
	case sub == "" && r.Method == "DELETE":
		h.batchStore.Delete(id)
		w.WriteHeader(http.StatusNoContent)
	case sub == "marc" && r.Method == "GET":
		h.writeMARC(w, r, batch)
	case sub != "" && sub != "marc":
		h.writeError(w, "Not found", http.StatusNotFound)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) writeMARC(w http.ResponseWriter, r *http.Request, batch *models.Batch) {
	// records without a barcode cannot be exported, reject before writing anything
	if _, err := export.BuildMARC(batch.Records, h.marcBuilder); err != nil {
		if errors.Is(err, marc.ErrIncomplete) {
			h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.writeError(w, "Failed to export MARC: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var err error
	if r.URL.Query().Get("format") == "mrc" {
		w.Header().Set("Content-Type", "application/marc")
		w.Header().Set("Content-Disposition", `attachment; filename="`+batch.ID+`.mrc"`)
		err = export.WriteMARC(w, batch.Records, h.marcBuilder)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = export.WriteMnemonic(w, batch.Records, h.marcBuilder)
	}
	if err != nil {
		slog.Error("Failed to write MARC response", "batch", batch.ID, "err", err)
	}
}
