package runs

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles run history HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new runs handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "runs").Logger(),
	}
}

// HandleListRuns handles GET / - list recent runs with optional filters
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 1000 {
			http.Error(w, "Invalid limit. Must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = l
	}
	algorithm := r.URL.Query().Get("algorithm")

	runs, err := h.service.ListRuns(limit, algorithm)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to retrieve runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": runs,
		"metadata": map[string]interface{}{
			"count":     len(runs),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRun handles GET /{id} - fetch one run
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.GetRun(id)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		http.Error(w, "Failed to retrieve run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": run})
}

// HandleGetSnapshot handles GET /{id}/snapshot - decode the persisted state
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.GetRun(id)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		http.Error(w, "Failed to retrieve run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if len(run.Snapshot) == 0 {
		http.Error(w, "Run has no state snapshot", http.StatusNotFound)
		return
	}

	snap, err := DecodeSnapshot(run.Snapshot)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to decode snapshot")
		http.Error(w, "Failed to decode snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id":        run.ID,
			"num_qubits":    snap.NumQubits,
			"amplitudes_re": snap.AmplitudesRe,
			"amplitudes_im": snap.AmplitudesIm,
			"coherence":     snap.Coherence,
			"fidelity":      snap.Fidelity,
			"metadata":      snap.Metadata,
			"entanglements": snap.Entanglements,
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
