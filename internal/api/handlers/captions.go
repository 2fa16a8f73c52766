package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fluencykaizen/backend/internal/caption"
	"github.com/fluencykaizen/backend/internal/db"
	"github.com/fluencykaizen/backend/internal/db/models"
	"github.com/fluencykaizen/backend/internal/pipeline"
	"github.com/fluencykaizen/backend/internal/project"
)

// generator is implemented by pipeline.Generator; tests substitute fakes.
type generator interface {
	Generate(ctx context.Context, run *pipeline.Run, projectID, assetName string, emit pipeline.Sink) (*caption.ClipData, error)
}

type CaptionsHandler struct {
	gen      generator
	runs     *pipeline.Registry
	database *db.Database
	projects *project.Store
}

func NewCaptionsHandler(gen generator, runs *pipeline.Registry, database *db.Database, projects *project.Store) *CaptionsHandler {
	return &CaptionsHandler{gen: gen, runs: runs, database: database, projects: projects}
}

type generateRequest struct {
	AssetName string `json:"assetName"`
}

// Generate starts a caption run and streams its progress as
// server-sent events. The response stays open for the whole run; the
// first event carries the run ID so the client can abort out of band.
// Closing the connection aborts the run.
func (h *CaptionsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssetName == "" {
		jsonError(w, "assetName is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	run := pipeline.NewRun()
	h.runs.Add(run)
	defer h.runs.Remove(run.ID)

	if err := h.database.CreateRun(run.ID, projectID, req.AssetName); err != nil {
		jsonError(w, "failed to record run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, flusher, map[string]string{"type": "started", "runId": run.ID})

	// A dropped connection cancels the run mid-flight. After the run
	// finishes the context is done anyway and Abort is a no-op.
	go func() {
		<-r.Context().Done()
		run.Abort()
	}()

	sink := func(ev pipeline.Event) {
		if ev.Type == "progress" {
			h.database.UpdateRunProgress(run.ID, string(ev.Stage), ev.Percent)
		}
		writeSSE(w, flusher, ev)
	}

	_, err := h.gen.Generate(r.Context(), run, projectID, req.AssetName, sink)
	switch {
	case errors.Is(err, pipeline.ErrAborted):
		h.database.FinishRun(run.ID, models.RunCancelled, "")
		log.Printf("[api] run %s cancelled", run.ID)
	case err != nil:
		h.database.FinishRun(run.ID, models.RunFailed, err.Error())
	default:
		h.database.FinishRun(run.ID, models.RunCompleted, "")
	}
}

// Abort cancels an in-flight run by ID.
func (h *CaptionsHandler) Abort(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if !h.runs.Abort(runID) {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, map[string]string{"status": "aborting"}, http.StatusAccepted)
}

// GetCaptions serves a previously generated ClipData from the cache.
func (h *CaptionsHandler) GetCaptions(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	assetName := chi.URLParam(r, "assetName")

	data, err := h.projects.LoadCaptions(projectID, assetName)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrProjectNotFound),
			errors.Is(err, project.ErrAssetNotFound),
			errors.Is(err, project.ErrNoCachedCaptions):
			jsonError(w, err.Error(), http.StatusNotFound)
		default:
			jsonError(w, "failed to load captions", http.StatusInternalServerError)
		}
		return
	}

	jsonResponse(w, data, http.StatusOK)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, payload interface{}) {
	buf, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[api] failed to encode SSE event: %v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", buf)
	flusher.Flush()
}
