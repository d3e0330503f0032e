package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
)

// GroverSearch amplifies the basis indices accepted by the oracle
// predicate and returns the most probable index. The oracle marking step
// is the exact phase oracle of the predicate: a sign flip on every marked
// amplitude, which is the action of the corresponding diagonal unitary.
// The diffusion operator is built from gates: Hadamard-all, PauliX-all,
// a phase flip on |1...1⟩ (the multi-controlled-Z), PauliX-all,
// Hadamard-all. iterations <= 0 selects the default ⌊π·√N/4⌋.
func (l *Library) GroverSearch(ctx context.Context, oracle func(int) bool, iterations int) (int, error) {
	if oracle == nil {
		return 0, fmt.Errorf("grover: nil oracle")
	}

	n := l.numQubits
	size := 1 << n
	if iterations <= 0 {
		iterations = int(math.Floor(math.Pi * math.Sqrt(float64(size)) / 4))
		if iterations < 1 {
			iterations = 1
		}
	}

	// Uniform superposition over all basis states.
	b := circuit.NewBuilder(n)
	for q := 0; q < n; q++ {
		b.AddGate(gates.Hadamard, []int{q})
	}
	prog, err := b.Program()
	if err != nil {
		return 0, err
	}
	st, err := l.engine.Execute(ctx, prog)
	if err != nil {
		return 0, err
	}

	h, err := gates.Matrix(gates.Hadamard)
	if err != nil {
		return 0, err
	}
	x, err := gates.Matrix(gates.PauliX)
	if err != nil {
		return 0, err
	}

	allOnes := size - 1
	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		// Oracle marking.
		st.PhaseFlip(oracle)

		// Diffusion.
		for q := 0; q < n; q++ {
			if err := st.Apply(h, q); err != nil {
				return 0, err
			}
		}
		for q := 0; q < n; q++ {
			if err := st.Apply(x, q); err != nil {
				return 0, err
			}
		}
		st.PhaseFlip(func(i int) bool { return i == allOnes })
		for q := 0; q < n; q++ {
			if err := st.Apply(x, q); err != nil {
				return 0, err
			}
		}
		for q := 0; q < n; q++ {
			if err := st.Apply(h, q); err != nil {
				return 0, err
			}
		}
	}

	return st.MostProbable(), nil
}
