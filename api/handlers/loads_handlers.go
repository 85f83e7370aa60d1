package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"incidentdash/core/loader"
	"incidentdash/core/store"
	"incidentdash/core/utils"
)

type LoadsHandler struct {
	loader  *loader.Loader
	runs    store.LoadRunsStore
	csvPath string
	logger  *utils.Logger
}

func NewLoadsHandler(l *loader.Loader, runs store.LoadRunsStore, csvPath string, logger *utils.Logger) *LoadsHandler {
	return &LoadsHandler{loader: l, runs: runs, csvPath: strings.TrimSpace(csvPath), logger: logger}
}

func (h *LoadsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.runs.ListRecent(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 20))
	if err != nil {
		h.logger.Errorf("list load runs: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "load history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Export streams the load history as CSV, newest first.
func (h *LoadsHandler) Export(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 500)
	items, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Errorf("export load runs: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	filename := "load_runs_" + time.Now().UTC().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "started_at", "finished_at", "source", "status", "accepted", "discarded", "inserted", "row_count", "max_severity", "error"})
	for i := range items {
		maxSeverity := ""
		if items[i].MaxSeverity != nil {
			maxSeverity = strconv.FormatInt(*items[i].MaxSeverity, 10)
		}
		_ = writer.Write([]string{
			items[i].ID,
			items[i].StartedAt.UTC().Format(time.RFC3339),
			items[i].FinishedAt.UTC().Format(time.RFC3339),
			items[i].Source,
			items[i].Status,
			strconv.Itoa(items[i].Accepted),
			strconv.Itoa(items[i].Discarded),
			strconv.Itoa(items[i].Inserted),
			strconv.FormatInt(items[i].RowCount, 10),
			maxSeverity,
			strings.TrimSpace(items[i].Error),
		})
	}
	writer.Flush()
}

// Reload rebuilds the incidents table from the configured CSV.
func (h *LoadsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil || h.csvPath == "" {
		writeError(w, http.StatusConflict, "not_configured", "no CSV source configured")
		return
	}
	sum, err := h.loader.Load(r.Context(), h.csvPath)
	var typeErr *store.StorageTypeError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sum)
	case errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusNotFound, "source_missing", err.Error())
	case errors.As(err, &typeErr):
		writeError(w, http.StatusUnprocessableEntity, "storage_type", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "load_failed", err.Error())
	}
}
