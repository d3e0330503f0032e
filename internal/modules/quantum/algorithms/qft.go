package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// QFTProgram builds the Fourier-transform program over n qubits: for each
// qubit j in increasing order, a Hadamard followed by, for every qubit
// k > j, a phase rotation of angle π/2^(k-j) applied to qubit k - modeled
// as a single-qubit phase gate, a simplification of the true
// controlled-phase interaction - then a full index reversal via Swap
// gates.
func (l *Library) QFTProgram(n int) (circuit.Program, error) {
	if n < 1 {
		return circuit.Program{}, fmt.Errorf("%w: qft needs a positive qubit count, got %d",
			state.ErrDimensionMismatch, n)
	}

	b := circuit.NewBuilder(n)
	for j := 0; j < n; j++ {
		b.AddGate(gates.Hadamard, []int{j})
		for k := j + 1; k < n; k++ {
			b.AddGate(gates.Phase, []int{k}, math.Pi/math.Pow(2, float64(k-j)))
		}
	}
	for j := 0; j < n/2; j++ {
		b.AddGate(gates.Swap, []int{j, n - 1 - j})
	}
	return b.Program()
}

// InverseQFTProgram builds the algebraic inverse of QFTProgram: the same
// instructions in reverse order with negated phase angles (Hadamard and
// Swap are self-inverse).
func (l *Library) InverseQFTProgram(n int) (circuit.Program, error) {
	forward, err := l.QFTProgram(n)
	if err != nil {
		return circuit.Program{}, err
	}

	b := circuit.NewBuilder(n)
	for i := len(forward.Instructions) - 1; i >= 0; i-- {
		in := forward.Instructions[i]
		params := in.Params
		if in.Kind == gates.Phase {
			params = []float64{-in.Params[0]}
		}
		b.AddGate(in.Kind, in.Qubits, params...)
	}
	return b.Program()
}

// QuantumFourierTransform executes the QFT program over the library's
// qubit count from |0...0⟩ and returns the resulting state.
func (l *Library) QuantumFourierTransform(ctx context.Context) (*state.State, error) {
	prog, err := l.QFTProgram(l.numQubits)
	if err != nil {
		return nil, err
	}
	st, err := l.engine.Execute(ctx, prog)
	if err != nil {
		return nil, err
	}
	st.Metadata["algorithm"] = "qft"
	return st, nil
}
