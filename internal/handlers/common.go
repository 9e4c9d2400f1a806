package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/mangacat/internal/cataloging"
	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/lehigh-university-libraries/mangacat/internal/storage"
)

type Handler struct {
	batchStore        *storage.BatchStore
	catalogingService *cataloging.Service
	marcBuilder       *marc.Builder
	defaultBarcode    string
}

func New(service *cataloging.Service, builder *marc.Builder, defaultBarcode string) *Handler {
	return &Handler{
		batchStore:        storage.New(),
		catalogingService: service,
		marcBuilder:       builder,
		defaultBarcode:    defaultBarcode,
	}
}

// Routes registers the API on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/lookup", h.HandleLookup)
	mux.HandleFunc("/api/batches", h.HandleBatches)
	mux.HandleFunc("/api/batches/", h.HandleBatchDetail)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) getBatchOrError(w http.ResponseWriter, id string) (*models.Batch, bool) {
	batch, exists := h.batchStore.Get(id)
	if !exists {
		h.writeError(w, "Batch not found", http.StatusNotFound)
		return nil, false
	}
	return batch, true
}
