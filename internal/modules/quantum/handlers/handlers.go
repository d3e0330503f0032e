// Package handlers provides the HTTP surface for the quantum processor:
// circuit execution, the algorithm library, and processor statistics.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
	"github.com/LukhasAI/quantum-engine/internal/modules/runs"
)

// Handler handles quantum HTTP requests
type Handler struct {
	service *runs.Service
	log     zerolog.Logger
}

// NewHandler creates a new quantum handler
func NewHandler(service *runs.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "quantum").Logger(),
	}
}

// CircuitRequest carries an instruction list to execute. Gate kinds are
// named, matching the gate library's canonical names.
type CircuitRequest struct {
	Instructions []circuit.Instruction `json:"instructions"`
}

// TeleportRequest carries the source amplitude vector as [re, im] pairs
type TeleportRequest struct {
	Amplitudes [][2]float64 `json:"amplitudes"`
}

// GroverRequest asks for a search for one marked basis index
type GroverRequest struct {
	Target     int `json:"target"`
	Iterations int `json:"iterations,omitempty"`
}

// VQERequest carries a dense Hamiltonian as rows of [re, im] pairs
type VQERequest struct {
	Hamiltonian   [][][2]float64 `json:"hamiltonian"`
	MaxIterations int            `json:"max_iterations,omitempty"`
}

// PhaseEstimationRequest carries the unitary, its eigenstate, and the
// precision register width
type PhaseEstimationRequest struct {
	Unitary         [][][2]float64 `json:"unitary"`
	Eigenstate      [][2]float64   `json:"eigenstate"`
	PrecisionQubits int            `json:"precision_qubits"`
}

// TrainClassifierRequest carries labeled training samples
type TrainClassifierRequest struct {
	Data   [][]float64 `json:"data"`
	Labels []float64   `json:"labels"`
}

// ErrorCorrectionRequest carries a state and the error rate to correct at
type ErrorCorrectionRequest struct {
	Amplitudes [][2]float64 `json:"amplitudes"`
	ErrorRate  float64      `json:"error_rate"`
}

// HandleExecuteCircuit handles POST /api/quantum/circuit
func (h *Handler) HandleExecuteCircuit(w http.ResponseWriter, r *http.Request) {
	var req CircuitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Instructions) == 0 {
		http.Error(w, "Circuit needs at least one instruction", http.StatusBadRequest)
		return
	}

	program := circuit.Program{
		NumQubits:    h.service.Processor().NumQubits(),
		Instructions: req.Instructions,
	}

	run, err := h.service.ExecuteCircuit(r.Context(), program)
	if err != nil {
		h.respondError(w, err, "Failed to execute circuit")
		return
	}
	h.writeRun(w, run)
}

// HandleBellPair handles POST /api/quantum/bell-pair
func (h *Handler) HandleBellPair(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.BellPair(r.Context())
	if err != nil {
		h.respondError(w, err, "Failed to create Bell pair")
		return
	}
	h.writeRun(w, run)
}

// HandleTeleport handles POST /api/quantum/teleport
func (h *Handler) HandleTeleport(w http.ResponseWriter, r *http.Request) {
	var req TeleportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run, err := h.service.Teleport(r.Context(), toComplexVector(req.Amplitudes))
	if err != nil {
		h.respondError(w, err, "Failed to teleport state")
		return
	}
	h.writeRun(w, run)
}

// HandleGrover handles POST /api/quantum/grover
func (h *Handler) HandleGrover(w http.ResponseWriter, r *http.Request) {
	var req GroverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run, err := h.service.Grover(r.Context(), req.Target, req.Iterations)
	if err != nil {
		h.respondError(w, err, "Failed to run search")
		return
	}
	h.writeRun(w, run)
}

// HandleVQE handles POST /api/quantum/vqe
func (h *Handler) HandleVQE(w http.ResponseWriter, r *http.Request) {
	var req VQERequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hamiltonian, err := toComplexMatrix(req.Hamiltonian)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.service.VQE(r.Context(), hamiltonian, req.MaxIterations)
	if err != nil {
		h.respondError(w, err, "Failed to run eigensolver")
		return
	}
	h.writeRun(w, run)
}

// HandleQFT handles POST /api/quantum/qft
func (h *Handler) HandleQFT(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.QFT(r.Context())
	if err != nil {
		h.respondError(w, err, "Failed to run Fourier transform")
		return
	}
	h.writeRun(w, run)
}

// HandlePhaseEstimation handles POST /api/quantum/phase-estimation
func (h *Handler) HandlePhaseEstimation(w http.ResponseWriter, r *http.Request) {
	var req PhaseEstimationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	unitary, err := toComplexMatrix(req.Unitary)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.service.PhaseEstimation(r.Context(), unitary, toComplexVector(req.Eigenstate), req.PrecisionQubits)
	if err != nil {
		h.respondError(w, err, "Failed to estimate phase")
		return
	}
	h.writeRun(w, run)
}

// HandleTrainClassifier handles POST /api/quantum/classifier/train
func (h *Handler) HandleTrainClassifier(w http.ResponseWriter, r *http.Request) {
	var req TrainClassifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run, err := h.service.TrainClassifier(r.Context(), req.Data, req.Labels)
	if err != nil {
		h.respondError(w, err, "Failed to train classifier")
		return
	}
	h.writeRun(w, run)
}

// HandleErrorCorrection handles POST /api/quantum/error-correction
func (h *Handler) HandleErrorCorrection(w http.ResponseWriter, r *http.Request) {
	var req ErrorCorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ErrorRate < 0 || req.ErrorRate > 1 {
		http.Error(w, "error_rate must be between 0 and 1", http.StatusBadRequest)
		return
	}

	run, err := h.service.ErrorCorrection(r.Context(), toComplexVector(req.Amplitudes), req.ErrorRate)
	if err != nil {
		h.respondError(w, err, "Failed to apply error correction")
		return
	}
	h.writeRun(w, run)
}

// HandleStatistics handles GET /api/quantum/statistics
func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	proc := h.service.Processor()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"num_qubits": proc.NumQubits(),
			"backend":    proc.BackendName(),
			"statistics": proc.Statistics(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetGates handles GET /api/quantum/gates - the supported gate set
func (h *Handler) HandleGetGates(w http.ResponseWriter, r *http.Request) {
	kinds := gates.Kinds()
	list := make([]map[string]interface{}, 0, len(kinds))
	for _, k := range kinds {
		list = append(list, map[string]interface{}{
			"name":       k.String(),
			"arity":      k.Arity(),
			"parameters": k.ParamCount(),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"gates": list,
			"count": len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeRun writes the standard response envelope for a completed run
func (h *Handler) writeRun(w http.ResponseWriter, run *runs.Run) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// respondError maps validation failures to 400 and everything else to 500
func (h *Handler) respondError(w http.ResponseWriter, err error, message string) {
	if isValidationError(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg(message)
	http.Error(w, message, http.StatusInternalServerError)
}

func isValidationError(err error) bool {
	return errors.Is(err, state.ErrDimensionMismatch) ||
		errors.Is(err, state.ErrInvalidQubitIndex) ||
		errors.Is(err, gates.ErrInvalidGateKind) ||
		errors.Is(err, gates.ErrMissingParameter) ||
		errors.Is(err, circuit.ErrArityMismatch)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// toComplexVector converts [re, im] pairs into an amplitude vector
func toComplexVector(pairs [][2]float64) []complex128 {
	out := make([]complex128, len(pairs))
	for i, p := range pairs {
		out[i] = complex(p[0], p[1])
	}
	return out
}

// toComplexMatrix converts rows of [re, im] pairs into a square CDense
func toComplexMatrix(rows [][][2]float64) (*mat.CDense, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.New("matrix must not be empty")
	}
	data := make([]complex128, 0, n*n)
	for _, row := range rows {
		if len(row) != n {
			return nil, errors.New("matrix must be square")
		}
		for _, p := range row {
			data = append(data, complex(p[0], p[1]))
		}
	}
	return mat.NewCDense(n, n, data), nil
}
