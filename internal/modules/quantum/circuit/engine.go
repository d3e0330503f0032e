package circuit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// Backend is the simulation capability: it takes a validated program and
// returns the normalized amplitude vector of length 2^n that results from
// applying it to |0...0⟩. Exactly one backend is chosen when the engine is
// constructed; the engine never probes for one at call time.
type Backend interface {
	Name() string
	Run(ctx context.Context, program Program) ([]complex128, error)
}

// StatevectorBackend is the embedded bit-indexed simulator. Each gate is
// applied to the subspace of its operand qubits, never via full
// tensor-product matrix expansion.
type StatevectorBackend struct{}

// Name identifies the backend in state metadata.
func (StatevectorBackend) Name() string { return "statevector" }

// Run executes the program from |0...0⟩ in instruction order. Gate order is
// significant; no reordering or optimization pass is performed.
func (StatevectorBackend) Run(ctx context.Context, program Program) ([]complex128, error) {
	if err := program.Validate(); err != nil {
		return nil, err
	}

	st := state.Zero(program.NumQubits)
	for i, in := range program.Instructions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u, err := gates.Matrix(in.Kind, in.Params...)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		if err := st.Apply(u, in.Qubits...); err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, in.Kind, err)
		}
	}
	return st.Amplitudes, nil
}

// Engine executes programs through its configured backend. Execution from
// the same program is deterministic: the only randomness in the engine
// lives in decoherence, which execution never invokes.
type Engine struct {
	backend  Backend
	embedded StatevectorBackend
	log      zerolog.Logger
}

// NewEngine creates an engine bound to the given backend. A nil backend
// selects the embedded statevector simulator.
func NewEngine(backend Backend, log zerolog.Logger) *Engine {
	e := &Engine{
		backend: backend,
		log:     log.With().Str("component", "engine").Logger(),
	}
	if e.backend == nil {
		e.backend = e.embedded
	}
	return e
}

// BackendName reports the configured backend.
func (e *Engine) BackendName() string {
	return e.backend.Name()
}

// Execute applies the program to a fresh |0...0⟩ state and returns the
// resulting quantum state. The backend that produced the amplitudes is
// always recorded in the state's metadata. If an external backend fails,
// execution falls back to the embedded simulator - a recorded fallback,
// not an error. Validation failures are errors regardless of backend.
func (e *Engine) Execute(ctx context.Context, program Program) (*state.State, error) {
	if err := program.Validate(); err != nil {
		return nil, err
	}

	backendName := e.backend.Name()
	amps, err := e.backend.Run(ctx, program)
	if err != nil {
		if e.backend.Name() == e.embedded.Name() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		e.log.Warn().
			Err(err).
			Str("backend", backendName).
			Msg("Backend unavailable, falling back to embedded simulator")
		amps, err = e.embedded.Run(ctx, program)
		if err != nil {
			return nil, err
		}
		backendName = e.embedded.Name()
	}

	st, err := state.New(program.NumQubits, amps)
	if err != nil {
		return nil, fmt.Errorf("backend %s returned malformed amplitudes: %w", backendName, err)
	}
	st.Metadata["backend"] = backendName
	return st, nil
}
