package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/barcode"
	"github.com/lehigh-university-libraries/mangacat/internal/cataloging"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

// LookupRequest catalogs one series (Series and Volumes) and/or several
// "Series=1-5" entries
type LookupRequest struct {
	Series       string   `json:"series"`
	Volumes      string   `json:"volumes"`
	Entries      []string `json:"entries"`
	StartBarcode string   `json:"start_barcode"`
}

// LookupResponse is the cataloged batch plus any entries that were skipped
// because they did not parse
type LookupResponse struct {
	*models.Batch
	ParseErrors []string `json:"parse_errors,omitempty"`
}

func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	requests, parseErrs, err := req.parse()
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := req.StartBarcode
	if start == "" {
		start = h.defaultBarcode
	}

	batch, err := h.catalogingService.Run(r.Context(), requests, start)
	var formatErr *barcode.FormatError
	switch {
	case errors.As(err, &formatErr):
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.writeError(w, "Lookup interrupted: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	h.batchStore.Set(batch)

	resp := LookupResponse{Batch: batch}
	for _, perr := range parseErrs {
		resp.ParseErrors = append(resp.ParseErrors, perr.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, resp)
}

// parse returns the requests that parsed and the errors of those that did
// not. It fails only when nothing is left to look up.
func (req LookupRequest) parse() ([]models.SeriesRequest, []error, error) {
	var (
		requests []models.SeriesRequest
		errs     []error
	)

	if strings.TrimSpace(req.Series) != "" {
		sr, err := cataloging.NewRequest(req.Series, req.Volumes)
		if err != nil {
			errs = append(errs, err)
		} else {
			requests = append(requests, sr)
		}
	}

	parsed, entryErrs := cataloging.ParseRequests(req.Entries)
	requests = append(requests, parsed...)
	errs = append(errs, entryErrs...)

	if len(requests) == 0 {
		if len(errs) > 0 {
			return nil, errs, errors.Join(errs...)
		}
		return nil, nil, errors.New("series and volumes are required")
	}
	for _, err := range errs {
		slog.Warn("Skipping series entry", "err", err)
	}
	return requests, errs, nil
}
