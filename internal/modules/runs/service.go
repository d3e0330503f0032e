package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// Service executes algorithms through the processor, persists a run
// record for each completed execution, and publishes a run event to the
// feed.
type Service struct {
	processor *quantum.Processor
	repo      *Repository
	feed      *Feed
	log       zerolog.Logger
}

// NewService creates a new runs service
func NewService(processor *quantum.Processor, repo *Repository, feed *Feed, log zerolog.Logger) *Service {
	return &Service{
		processor: processor,
		repo:      repo,
		feed:      feed,
		log:       log.With().Str("service", "runs").Logger(),
	}
}

// Processor exposes the underlying processor (statistics, qubit count)
func (s *Service) Processor() *quantum.Processor { return s.processor }

// Feed exposes the run event feed for websocket subscribers
func (s *Service) Feed() *Feed { return s.feed }

// GetRun retrieves a persisted run by ID
func (s *Service) GetRun(id string) (*Run, error) {
	return s.repo.GetByID(id)
}

// ListRuns retrieves recent runs, optionally filtered by algorithm
func (s *Service) ListRuns(limit int, algorithm string) ([]Run, error) {
	return s.repo.GetRecent(limit, algorithm)
}

// ExecuteCircuit runs an arbitrary validated program and records the run
func (s *Service) ExecuteCircuit(ctx context.Context, program circuit.Program) (*Run, error) {
	start := time.Now()
	st, err := s.processor.ExecuteCircuit(ctx, program)
	if err != nil {
		return nil, err
	}

	probs, err := st.Measure()
	if err != nil {
		return nil, err
	}

	return s.record("execute_circuit", start, st, map[string]interface{}{
		"state_id":      st.ID(),
		"instructions":  len(program.Instructions),
		"probabilities": probs,
		"most_probable": st.BasisString(st.MostProbable()),
	})
}

// BellPair creates a Bell pair and records the run
func (s *Service) BellPair(ctx context.Context) (*Run, error) {
	start := time.Now()
	st, pair, err := s.processor.CreateBellPair(ctx)
	if err != nil {
		return nil, err
	}

	probs, err := st.Measure()
	if err != nil {
		return nil, err
	}
	entropy, err := st.EntanglementEntropy([]int{pair[0]})
	if err != nil {
		return nil, err
	}

	return s.record("bell_pair", start, st, map[string]interface{}{
		"state_id":       st.ID(),
		"entangled_pair": pair,
		"probabilities":  probs,
		"entropy":        entropy,
	})
}

// Teleport models teleportation of the given amplitude vector
func (s *Service) Teleport(ctx context.Context, amplitudes []complex128) (*Run, error) {
	start := time.Now()

	source, err := state.New(s.processor.NumQubits(), amplitudes)
	if err != nil {
		return nil, err
	}
	dst, err := s.processor.Teleport(ctx, source)
	if err != nil {
		return nil, err
	}

	return s.record("teleport", start, dst, map[string]interface{}{
		"source_state_id": source.ID(),
		"state_id":        dst.ID(),
		"fidelity":        dst.Fidelity,
	})
}

// Grover searches for the target basis index and records the run
func (s *Service) Grover(ctx context.Context, target int, iterations int) (*Run, error) {
	size := 1 << s.processor.NumQubits()
	if target < 0 || target >= size {
		return nil, fmt.Errorf("%w: grover target %d outside [0, %d)",
			state.ErrInvalidQubitIndex, target, size)
	}

	start := time.Now()
	found, err := s.processor.GroverSearch(ctx, func(i int) bool { return i == target }, iterations)
	if err != nil {
		return nil, err
	}

	return s.record("grover", start, nil, map[string]interface{}{
		"target":  target,
		"found":   found,
		"success": found == target,
	})
}

// VQE minimizes the Hamiltonian's expectation and records the run
func (s *Service) VQE(ctx context.Context, hamiltonian *mat.CDense, maxIterations int) (*Run, error) {
	start := time.Now()
	result, err := s.processor.VQE(ctx, hamiltonian, maxIterations)
	if err != nil {
		return nil, err
	}

	return s.record("vqe", start, nil, map[string]interface{}{
		"ground_energy": result.Value,
		"parameters":    result.Parameters,
		"iterations":    result.Iterations,
	})
}

// QFT executes the Fourier transform program and records the run
func (s *Service) QFT(ctx context.Context) (*Run, error) {
	start := time.Now()
	st, err := s.processor.QuantumFourierTransform(ctx)
	if err != nil {
		return nil, err
	}

	probs, err := st.Measure()
	if err != nil {
		return nil, err
	}

	return s.record("qft", start, st, map[string]interface{}{
		"state_id":      st.ID(),
		"probabilities": probs,
	})
}

// PhaseEstimation estimates the unitary's eigenphase and records the run
func (s *Service) PhaseEstimation(ctx context.Context, unitary *mat.CDense, eigenstate []complex128, precisionQubits int) (*Run, error) {
	start := time.Now()
	phase, err := s.processor.PhaseEstimation(ctx, unitary, eigenstate, precisionQubits)
	if err != nil {
		return nil, err
	}

	return s.record("phase_estimation", start, nil, map[string]interface{}{
		"phase":            phase,
		"precision_qubits": precisionQubits,
	})
}

// TrainClassifier fits the variational classifier and records the run
func (s *Service) TrainClassifier(ctx context.Context, data [][]float64, labels []float64) (*Run, error) {
	start := time.Now()
	params, err := s.processor.TrainClassifier(ctx, data, labels)
	if err != nil {
		return nil, err
	}

	return s.record("train_classifier", start, nil, map[string]interface{}{
		"parameters": params,
		"samples":    len(data),
	})
}

// ErrorCorrection applies the correction pass to the amplitude vector
func (s *Service) ErrorCorrection(ctx context.Context, amplitudes []complex128, errorRate float64) (*Run, error) {
	start := time.Now()

	st, err := state.New(s.processor.NumQubits(), amplitudes)
	if err != nil {
		return nil, err
	}
	before := st.Coherence
	if err := s.processor.ApplyErrorCorrection(ctx, st, errorRate); err != nil {
		return nil, err
	}

	return s.record("error_correction", start, st, map[string]interface{}{
		"state_id":         st.ID(),
		"error_rate":       errorRate,
		"coherence_before": before,
		"coherence_after":  st.Coherence,
	})
}

// record persists the run, publishes a feed event, and returns the record.
// st may be nil for algorithms whose outcome is classical.
func (s *Service) record(algorithm string, start time.Time, st *state.State, payload interface{}) (*Run, error) {
	resultJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", algorithm, err)
	}

	run := &Run{
		ID:         uuid.NewString(),
		Algorithm:  algorithm,
		NumQubits:  s.processor.NumQubits(),
		Backend:    s.processor.BackendName(),
		DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Result:     resultJSON,
		CreatedAt:  time.Now().UTC(),
	}

	if st != nil {
		snapshot, err := snapshotState(st)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s snapshot: %w", algorithm, err)
		}
		run.Snapshot = snapshot
		if backend, ok := st.Metadata["backend"]; ok {
			run.Backend = backend
		}
	}

	if _, err := s.repo.Create(run); err != nil {
		return nil, err
	}

	s.feed.Publish(Event{Type: "run_completed", Run: run})
	s.log.Info().
		Str("run_id", run.ID).
		Str("algorithm", algorithm).
		Float64("duration_ms", run.DurationMS).
		Msg("Run recorded")

	return run, nil
}

// snapshotState encodes the state into the msgpack snapshot blob
func snapshotState(st *state.State) ([]byte, error) {
	snap := StateSnapshot{
		NumQubits:     st.NumQubits,
		AmplitudesRe:  make([]float64, len(st.Amplitudes)),
		AmplitudesIm:  make([]float64, len(st.Amplitudes)),
		Coherence:     st.Coherence,
		Fidelity:      st.Fidelity,
		Metadata:      st.Metadata,
		Entanglements: st.EntanglementMap,
	}
	for i, a := range st.Amplitudes {
		snap.AmplitudesRe[i] = real(a)
		snap.AmplitudesIm[i] = imag(a)
	}
	return msgpack.Marshal(snap)
}

// DecodeSnapshot decodes a persisted snapshot blob
func DecodeSnapshot(blob []byte) (*StateSnapshot, error) {
	var snap StateSnapshot
	if err := msgpack.Unmarshal(blob, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
