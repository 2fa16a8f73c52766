package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fluencykaizen/backend/internal/db"
	"github.com/fluencykaizen/backend/internal/db/models"
)

type RunsHandler struct {
	database *db.Database
}

func NewRunsHandler(database *db.Database) *RunsHandler {
	return &RunsHandler{database: database}
}

// ListRuns returns the most recent caption runs, newest first.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.database.ListRuns(limit)
	if err != nil {
		jsonError(w, "failed to list runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*models.CaptionRun{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetRun returns a single run record by ID.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing run ID", http.StatusBadRequest)
		return
	}

	run, err := h.database.GetRun(id)
	if err != nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}
