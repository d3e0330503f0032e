// Package quantum provides the processor: a fixed-qubit-count context that
// dispatches the algorithm library and accumulates run statistics. Each
// processor owns its counters exclusively, so running many processors
// concurrently is safe by construction with no shared state.
package quantum

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/algorithms"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// Config configures a processor. The backend is chosen here, once;
// execution never probes for one at call time. Seed drives all engine
// randomness (decoherence and the heuristic trainers).
type Config struct {
	NumQubits int
	Backend   circuit.Backend
	Minimizer algorithms.Minimizer
	Seed      uint64
	Log       zerolog.Logger
}

// StatisticsSnapshot is a read-only view of the processor's counters.
type StatisticsSnapshot struct {
	CircuitsExecuted     uint64 `json:"circuits_executed"`
	EntanglementsCreated uint64 `json:"entanglements_created"`
	Teleportations       uint64 `json:"teleportations"`
	Optimizations        uint64 `json:"optimizations"`
}

// statistics holds the four monotonic counters. Counters only reset by
// constructing a new processor.
type statistics struct {
	circuitsExecuted     atomic.Uint64
	entanglementsCreated atomic.Uint64
	teleportations       atomic.Uint64
	optimizations        atomic.Uint64
}

// Processor owns the qubit-count context, the execution engine, and the
// algorithm library, and counts completed work.
type Processor struct {
	numQubits int
	engine    *circuit.Engine
	lib       *algorithms.Library
	stats     statistics
	log       zerolog.Logger
}

// NewProcessor wires an engine and algorithm library for the configured
// qubit count.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.NumQubits < 1 {
		return nil, fmt.Errorf("%w: processor needs a positive qubit count, got %d",
			state.ErrDimensionMismatch, cfg.NumQubits)
	}

	log := cfg.Log.With().Str("component", "processor").Int("qubits", cfg.NumQubits).Logger()
	engine := circuit.NewEngine(cfg.Backend, log)
	lib, err := algorithms.NewLibrary(cfg.NumQubits, engine, cfg.Minimizer, cfg.Seed, log)
	if err != nil {
		return nil, err
	}

	return &Processor{
		numQubits: cfg.NumQubits,
		engine:    engine,
		lib:       lib,
		log:       log,
	}, nil
}

// NumQubits returns the processor's fixed circuit width.
func (p *Processor) NumQubits() int { return p.numQubits }

// BackendName reports the engine's configured backend.
func (p *Processor) BackendName() string { return p.engine.BackendName() }

// NewBuilder returns a circuit builder sized to the processor.
func (p *Processor) NewBuilder() *circuit.Builder {
	return circuit.NewBuilder(p.numQubits)
}

// ExecuteCircuit runs a program through the engine.
func (p *Processor) ExecuteCircuit(ctx context.Context, program circuit.Program) (*state.State, error) {
	st, err := p.engine.Execute(ctx, program)
	if err != nil {
		return nil, err
	}
	p.stats.circuitsExecuted.Add(1)
	return st, nil
}

// CreateBellPair builds the two-qubit Bell state (|00⟩+|11⟩)/√2.
func (p *Processor) CreateBellPair(ctx context.Context) (*state.State, [2]int, error) {
	st, pair, err := p.lib.BellPair(ctx)
	if err != nil {
		return nil, pair, err
	}
	p.stats.circuitsExecuted.Add(1)
	p.stats.entanglementsCreated.Add(1)
	return st, pair, nil
}

// Teleport models teleportation of the source state; see algorithms.Teleport.
func (p *Processor) Teleport(ctx context.Context, source *state.State) (*state.State, error) {
	st, err := p.lib.Teleport(ctx, source)
	if err != nil {
		return nil, err
	}
	p.stats.teleportations.Add(1)
	return st, nil
}

// GroverSearch returns the most probable index under the oracle predicate.
func (p *Processor) GroverSearch(ctx context.Context, oracle func(int) bool, iterations int) (int, error) {
	result, err := p.lib.GroverSearch(ctx, oracle, iterations)
	if err != nil {
		return 0, err
	}
	p.stats.circuitsExecuted.Add(1)
	return result, nil
}

// VQE minimizes Re⟨ψ(θ)|H|ψ(θ)⟩ over the ansatz parameters.
func (p *Processor) VQE(ctx context.Context, hamiltonian *mat.CDense, maxIterations int) (*algorithms.OptimizationResult, error) {
	result, err := p.lib.VQE(ctx, hamiltonian, maxIterations)
	if err != nil {
		return nil, err
	}
	p.stats.optimizations.Add(1)
	return result, nil
}

// QuantumFourierTransform executes the QFT program from |0...0⟩.
func (p *Processor) QuantumFourierTransform(ctx context.Context) (*state.State, error) {
	st, err := p.lib.QuantumFourierTransform(ctx)
	if err != nil {
		return nil, err
	}
	p.stats.circuitsExecuted.Add(1)
	return st, nil
}

// PhaseEstimation estimates a unitary's eigenphase on an eigenstate.
func (p *Processor) PhaseEstimation(ctx context.Context, unitary *mat.CDense, eigenstate []complex128, precisionQubits int) (float64, error) {
	phase, err := p.lib.PhaseEstimation(ctx, unitary, eigenstate, precisionQubits)
	if err != nil {
		return 0, err
	}
	p.stats.circuitsExecuted.Add(1)
	return phase, nil
}

// TrainClassifier fits the variational classifier to the samples.
func (p *Processor) TrainClassifier(ctx context.Context, data [][]float64, labels []float64) ([]float64, error) {
	params, err := p.lib.TrainClassifier(ctx, data, labels)
	if err != nil {
		return nil, err
	}
	p.stats.optimizations.Add(1)
	return params, nil
}

// ApplyErrorCorrection runs the illustrative correction pass in place.
func (p *Processor) ApplyErrorCorrection(ctx context.Context, st *state.State, errorRate float64) error {
	return p.lib.ApplyErrorCorrection(ctx, st, errorRate)
}

// ApplyDecoherence adds noise to the state using the processor's seeded
// random source.
func (p *Processor) ApplyDecoherence(st *state.State, noiseLevel float64) {
	st.ApplyDecoherence(noiseLevel, p.lib.Rand())
}

// HybridOptimize refines quantum-sampled candidates with the classical
// constrained minimizer.
func (p *Processor) HybridOptimize(
	ctx context.Context,
	objective func([]float64) float64,
	constraints []algorithms.Constraint,
	dim int,
	maxIterations int,
) (*algorithms.OptimizationResult, error) {
	result, err := p.lib.HybridOptimize(ctx, objective, constraints, dim, maxIterations)
	if err != nil {
		return nil, err
	}
	p.stats.optimizations.Add(1)
	return result, nil
}

// Statistics returns a read-only snapshot of the counters.
func (p *Processor) Statistics() StatisticsSnapshot {
	return StatisticsSnapshot{
		CircuitsExecuted:     p.stats.circuitsExecuted.Load(),
		EntanglementsCreated: p.stats.entanglementsCreated.Load(),
		Teleportations:       p.stats.teleportations.Load(),
		Optimizations:        p.stats.optimizations.Load(),
	}
}
