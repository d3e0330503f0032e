package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

const hermitianTol = 1e-9

// VQE minimizes the real part of ⟨ψ(θ)|H|ψ(θ)⟩ over the ansatz parameters
// with the library's derivative-free classical minimizer. The Hamiltonian
// must be Hermitian and sized 2^n x 2^n for the circuit's qubit count.
// Reaching the iteration cap reports the parameters and value at the cap,
// never an error.
//
// The ansatz is, per qubit, a RotationY then RotationZ layer, a chain of
// nearest-neighbor CNOTs, then a final RotationY layer: 3n parameters.
func (l *Library) VQE(ctx context.Context, hamiltonian *mat.CDense, maxIterations int) (*OptimizationResult, error) {
	dim := 1 << l.numQubits
	r, c := hamiltonian.Dims()
	if r != dim || c != dim {
		return nil, fmt.Errorf("%w: %dx%d hamiltonian for %d qubits (want %dx%d)",
			state.ErrDimensionMismatch, r, c, l.numQubits, dim, dim)
	}
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			if cmplx.Abs(hamiltonian.At(i, j)-cmplx.Conj(hamiltonian.At(j, i))) > hermitianTol {
				return nil, fmt.Errorf("%w: hamiltonian is not Hermitian at (%d,%d)",
					state.ErrDimensionMismatch, i, j)
			}
		}
	}

	evalFailures := 0
	objective := func(theta []float64) float64 {
		st, err := l.runAnsatz(ctx, theta)
		if err != nil {
			if evalFailures == 0 {
				l.log.Warn().Err(err).Msg("ansatz evaluation failed, poisoning point")
			}
			evalFailures++
			// Poison the point; the minimizer keeps the best valid one.
			return 1e18
		}
		return Expectation(hamiltonian, st.Amplitudes)
	}

	// Spread the start over [0, π) per parameter. Nelder-Mead sizes its
	// initial simplex relative to the starting point, so a near-zero start
	// stalls in a degenerate simplex.
	initial := make([]float64, 3*l.numQubits)
	for i := range initial {
		initial[i] = math.Pi * l.rng.Float64()
	}

	result, err := l.minimizer.Minimize(ctx, objective, initial, maxIterations)
	if err != nil {
		return nil, fmt.Errorf("vqe: %w", err)
	}
	if evalFailures > 0 {
		l.log.Warn().Int("failed_evaluations", evalFailures).Msg("vqe ran with poisoned ansatz evaluations")
	}
	// Report the exact value at the optimum, not the last sampled point.
	result.Value = objective(result.Parameters)
	return result, nil
}

// runAnsatz executes the VQE ansatz circuit for the given parameters.
func (l *Library) runAnsatz(ctx context.Context, theta []float64) (*state.State, error) {
	n := l.numQubits
	if len(theta) != 3*n {
		return nil, fmt.Errorf("%w: %d ansatz parameters for %d qubits (want %d)",
			state.ErrDimensionMismatch, len(theta), n, 3*n)
	}

	b := circuit.NewBuilder(n)
	for q := 0; q < n; q++ {
		b.AddGate(gates.RotationY, []int{q}, theta[q])
		b.AddGate(gates.RotationZ, []int{q}, theta[n+q])
	}
	for q := 0; q+1 < n; q++ {
		b.AddGate(gates.CNOT, []int{q, q + 1})
	}
	for q := 0; q < n; q++ {
		b.AddGate(gates.RotationY, []int{q}, theta[2*n+q])
	}

	prog, err := b.Program()
	if err != nil {
		return nil, err
	}
	return l.engine.Execute(ctx, prog)
}

// Expectation returns Re⟨ψ|H|ψ⟩ for a dense operator and amplitude vector.
func Expectation(h *mat.CDense, amplitudes []complex128) float64 {
	psi := mat.NewCDense(len(amplitudes), 1, amplitudes)
	hPsi := gates.Mul(h, psi)

	var acc complex128
	for i, a := range amplitudes {
		acc += cmplx.Conj(a) * hPsi.At(i, 0)
	}
	return real(acc)
}
