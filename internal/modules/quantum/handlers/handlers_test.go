package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum"
	"github.com/LukhasAI/quantum-engine/internal/modules/runs"
)

func setupRouter(t *testing.T) (*chi.Mux, *runs.Service) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, runs.InitSchema(db))

	processor, err := quantum.NewProcessor(quantum.Config{
		NumQubits: 2,
		Seed:      42,
		Log:       zerolog.Nop(),
	})
	require.NoError(t, err)

	service := runs.NewService(
		processor,
		runs.NewRepository(db, zerolog.Nop()),
		runs.NewFeed(),
		zerolog.Nop(),
	)

	router := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(router)
	return router, service
}

func postJSON(t *testing.T, router *chi.Mux, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeRun pulls the run record out of the response envelope
func decodeRun(t *testing.T, rec *httptest.ResponseRecorder) runs.Run {
	t.Helper()

	var envelope struct {
		Data runs.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHandleBellPair(t *testing.T) {
	router, _ := setupRouter(t)

	rec := postJSON(t, router, "/quantum/bell-pair", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	assert.Equal(t, "bell_pair", run.Algorithm)
	assert.Equal(t, 2, run.NumQubits)
	assert.NotEmpty(t, run.ID)

	var payload struct {
		Entropy       float64            `json:"entropy"`
		Probabilities map[string]float64 `json:"probabilities"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.InDelta(t, 1.0, payload.Entropy, 1e-9)
	assert.InDelta(t, 0.5, payload.Probabilities["00"], 1e-9)
	assert.InDelta(t, 0.5, payload.Probabilities["11"], 1e-9)
}

func TestHandleExecuteCircuit(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"instructions": []map[string]interface{}{
			{"kind": "pauli_x", "qubits": []int{0}},
			{"kind": "pauli_x", "qubits": []int{1}},
		},
	}

	rec := postJSON(t, router, "/quantum/circuit", body)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		MostProbable string `json:"most_probable"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.Equal(t, "11", payload.MostProbable)
}

func TestHandleExecuteCircuit_Validation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty circuit", map[string]interface{}{"instructions": []map[string]interface{}{}}},
		{"unknown gate", map[string]interface{}{
			"instructions": []map[string]interface{}{{"kind": "fredkin", "qubits": []int{0}}},
		}},
		{"qubit out of range", map[string]interface{}{
			"instructions": []map[string]interface{}{{"kind": "pauli_x", "qubits": []int{5}}},
		}},
		{"missing rotation angle", map[string]interface{}{
			"instructions": []map[string]interface{}{{"kind": "rotation_z", "qubits": []int{0}}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/quantum/circuit", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleTeleport(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"amplitudes": [][2]float64{{0, 0}, {1, 0}, {0, 0}, {0, 0}},
	}

	rec := postJSON(t, router, "/quantum/teleport", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teleport", decodeRun(t, rec).Algorithm)
}

func TestHandleTeleport_BadAmplitudes(t *testing.T) {
	router, _ := setupRouter(t)

	// Wrong vector length for a two-qubit register
	body := map[string]interface{}{
		"amplitudes": [][2]float64{{1, 0}, {0, 0}},
	}

	rec := postJSON(t, router, "/quantum/teleport", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGrover(t *testing.T) {
	router, _ := setupRouter(t)

	rec := postJSON(t, router, "/quantum/grover", map[string]interface{}{"target": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		Found   int  `json:"found"`
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.Equal(t, 2, payload.Found)
	assert.True(t, payload.Success)
}

func TestHandleGrover_TargetOutOfRange(t *testing.T) {
	router, _ := setupRouter(t)

	rec := postJSON(t, router, "/quantum/grover", map[string]interface{}{"target": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVQE(t *testing.T) {
	router, _ := setupRouter(t)

	zero := [2]float64{0, 0}
	body := map[string]interface{}{
		"hamiltonian": [][][2]float64{
			{{-1, 0}, zero, zero, zero},
			{zero, {1, 0}, zero, zero},
			{zero, zero, {1, 0}, zero},
			{zero, zero, zero, {-1, 0}},
		},
	}

	rec := postJSON(t, router, "/quantum/vqe", body)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		GroundEnergy float64 `json:"ground_energy"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.LessOrEqual(t, payload.GroundEnergy, -0.95)
}

func TestHandleVQE_NonSquareMatrix(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"hamiltonian": [][][2]float64{
			{{1, 0}, {0, 0}},
		},
	}

	rec := postJSON(t, router, "/quantum/vqe", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQFT(t *testing.T) {
	router, _ := setupRouter(t)

	rec := postJSON(t, router, "/quantum/qft", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		Probabilities map[string]float64 `json:"probabilities"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	// QFT of |00> is the uniform superposition
	for _, p := range payload.Probabilities {
		assert.InDelta(t, 0.25, p, 1e-9)
	}
}

func TestHandlePhaseEstimation(t *testing.T) {
	router, _ := setupRouter(t)

	// S gate: phase pi/2 on |1>
	body := map[string]interface{}{
		"unitary": [][][2]float64{
			{{1, 0}, {0, 0}},
			{{0, 0}, {0, 1}},
		},
		"eigenstate":       [][2]float64{{0, 0}, {1, 0}},
		"precision_qubits": 3,
	}

	rec := postJSON(t, router, "/quantum/phase-estimation", body)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		Phase float64 `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.InDelta(t, 1.5707963, payload.Phase, 1e-6)
}

func TestHandleTrainClassifier(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"data":   [][]float64{{0.1, 0.2}, {0.8, 0.9}, {0.2, 0.1}, {0.9, 0.8}},
		"labels": []float64{0, 1, 0, 1},
	}

	rec := postJSON(t, router, "/quantum/classifier/train", body)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		Parameters []float64 `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.Len(t, payload.Parameters, 4)
}

func TestHandleErrorCorrection(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"amplitudes": [][2]float64{{1, 0}, {0, 0}, {0, 0}, {0, 0}},
		"error_rate": 0.2,
	}

	rec := postJSON(t, router, "/quantum/error-correction", body)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeRun(t, rec)
	var payload struct {
		CoherenceAfter float64 `json:"coherence_after"`
	}
	require.NoError(t, json.Unmarshal(run.Result, &payload))
	assert.InDelta(t, 0.9, payload.CoherenceAfter, 1e-9)
}

func TestHandleErrorCorrection_RateOutOfRange(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"amplitudes": [][2]float64{{1, 0}, {0, 0}, {0, 0}, {0, 0}},
		"error_rate": 1.5,
	}

	rec := postJSON(t, router, "/quantum/error-correction", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatistics(t *testing.T) {
	router, _ := setupRouter(t)

	// Run one algorithm so the counters are non-zero
	rec := postJSON(t, router, "/quantum/bell-pair", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest("GET", "/quantum/statistics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			NumQubits  int    `json:"num_qubits"`
			Backend    string `json:"backend"`
			Statistics struct {
				CircuitsExecuted     uint64 `json:"circuits_executed"`
				EntanglementsCreated uint64 `json:"entanglements_created"`
			} `json:"statistics"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.NumQubits)
	assert.Equal(t, "statevector", envelope.Data.Backend)
	assert.Equal(t, uint64(1), envelope.Data.Statistics.CircuitsExecuted)
	assert.Equal(t, uint64(1), envelope.Data.Statistics.EntanglementsCreated)
}

func TestHandleGetGates(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/quantum/gates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Gates []struct {
				Name       string `json:"name"`
				Arity      int    `json:"arity"`
				Parameters int    `json:"parameters"`
			} `json:"gates"`
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, len(envelope.Data.Gates), envelope.Data.Count)

	names := make(map[string]bool)
	for _, g := range envelope.Data.Gates {
		names[g.Name] = true
	}
	assert.True(t, names["hadamard"])
	assert.True(t, names["cnot"])
	assert.True(t, names["rotation_z"])
}

func TestRegisterRoutes_Prefix(t *testing.T) {
	router, _ := setupRouter(t)

	// Routes outside /quantum are not registered here
	req := httptest.NewRequest("GET", "/statistics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
