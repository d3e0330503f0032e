package algorithms

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// Library bundles the algorithm routines over a fixed qubit count. All
// randomness flows through one seeded source, so a library constructed
// with the same seed replays identically.
type Library struct {
	numQubits int
	engine    *circuit.Engine
	minimizer Minimizer
	rng       *rand.Rand
	log       zerolog.Logger
}

// NewLibrary creates an algorithm library for circuits over numQubits
// qubits. A nil minimizer selects Nelder-Mead.
func NewLibrary(numQubits int, engine *circuit.Engine, minimizer Minimizer, seed uint64, log zerolog.Logger) (*Library, error) {
	if numQubits < 1 {
		return nil, fmt.Errorf("%w: qubit count must be positive, got %d",
			state.ErrDimensionMismatch, numQubits)
	}
	if minimizer == nil {
		minimizer = NelderMeadMinimizer{}
	}
	return &Library{
		numQubits: numQubits,
		engine:    engine,
		minimizer: minimizer,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log.With().Str("component", "algorithms").Logger(),
	}, nil
}

// NumQubits returns the library's fixed circuit width.
func (l *Library) NumQubits() int { return l.numQubits }

// Rand exposes the library's seeded random source. Decoherence and the
// heuristic trainers draw from it.
func (l *Library) Rand() *rand.Rand { return l.rng }

// BellPair executes [Hadamard(0), CNOT(0,1)] on a 2-qubit circuit,
// producing (|00⟩+|11⟩)/√2 with both qubits tagged as mutually entangled.
// Returns the state and the entangled pair [0, 1].
func (l *Library) BellPair(ctx context.Context) (*state.State, [2]int, error) {
	prog, err := circuit.NewBuilder(2).
		AddGate(gates.Hadamard, []int{0}).
		AddGate(gates.CNOT, []int{0, 1}).
		Program()
	if err != nil {
		return nil, [2]int{}, err
	}

	st, err := l.engine.Execute(ctx, prog)
	if err != nil {
		return nil, [2]int{}, err
	}
	st.MarkEntangled(0, 1)
	return st, [2]int{0, 1}, nil
}

// Teleport returns a new state whose amplitude content equals the
// source's, tagged with provenance back to the source's identity. This
// models the protocol's end guarantee only: the measurement and classical
// correction exchange of the physical protocol is deliberately not
// simulated.
func (l *Library) Teleport(ctx context.Context, source *state.State) (*state.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: nil source state", state.ErrDimensionMismatch)
	}

	dst := source.Clone()
	dst.Metadata["teleported"] = "true"
	dst.Metadata["teleported_from"] = source.ID()
	return dst, nil
}

// mostProbableOutcome returns the outcome bitstring with the largest
// probability mass and its integer value.
func mostProbableOutcome(probs map[string]float64) (string, int) {
	bestKey := ""
	bestP := -1.0
	for key, p := range probs {
		if p > bestP || (p == bestP && key < bestKey) {
			bestKey, bestP = key, p
		}
	}
	v, _ := strconv.ParseInt(bestKey, 2, 64)
	return bestKey, int(v)
}
