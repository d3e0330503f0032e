package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// PhaseEstimation estimates the eigenphase of a unitary on one of its
// eigenstates: hadamards over the precision register, controlled-U^(2^k)
// phase kickback onto the register, an exact inverse Fourier pass over the
// register, and a measurement whose most likely outcome b converts to
// θ = (b / 2^precisionQubits) · 2π.
func (l *Library) PhaseEstimation(ctx context.Context, unitary *mat.CDense, eigenstate []complex128, precisionQubits int) (float64, error) {
	if precisionQubits < 1 {
		return 0, fmt.Errorf("%w: precision register needs at least one qubit, got %d",
			state.ErrDimensionMismatch, precisionQubits)
	}
	r, c := unitary.Dims()
	if r != c || r < 2 || bits.OnesCount(uint(r)) != 1 {
		return 0, fmt.Errorf("%w: unitary must be square with power-of-two dimension, got %dx%d",
			state.ErrDimensionMismatch, r, c)
	}
	if len(eigenstate) != r {
		return 0, fmt.Errorf("%w: eigenstate has %d amplitudes, unitary dimension is %d",
			state.ErrDimensionMismatch, len(eigenstate), r)
	}
	if !gates.IsUnitary(unitary, 1e-9) {
		return 0, fmt.Errorf("phase estimation: operator is not unitary within 1e-9")
	}

	t := precisionQubits
	m := bits.TrailingZeros(uint(r))
	total := t + m

	// |0...0⟩ over the register, eigenstate over the target qubits: with
	// qubit 0 as the most significant bit, those are the first r indices.
	amps := make([]complex128, 1<<total)
	copy(amps[:r], eigenstate)
	st, err := state.New(total, amps)
	if err != nil {
		return 0, err
	}

	h, err := gates.Matrix(gates.Hadamard)
	if err != nil {
		return 0, err
	}
	for q := 0; q < t; q++ {
		if err := st.Apply(h, q); err != nil {
			return 0, err
		}
	}

	targets := make([]int, m)
	for i := range targets {
		targets[i] = t + i
	}

	// Register qubit j controls U^(2^(t-1-j)), so the register accumulates
	// the phase in standard binary with qubit 0 as the most significant bit.
	power := matPower(unitary, 1)
	for j := t - 1; j >= 0; j-- {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		controlled := gates.Controlled(power)
		operands := append([]int{j}, targets...)
		if err := st.Apply(controlled, operands...); err != nil {
			return 0, err
		}
		if j > 0 {
			power = matPower(power, 2)
		}
	}

	// Exact inverse Fourier transform over the register.
	if err := st.Apply(inverseFourierMatrix(t), registerQubits(t)...); err != nil {
		return 0, err
	}

	probs, err := st.Measure(registerQubits(t)...)
	if err != nil {
		return 0, err
	}
	_, outcome := mostProbableOutcome(probs)

	return (float64(outcome) / float64(int(1)<<t)) * 2 * math.Pi, nil
}

func registerQubits(t int) []int {
	qs := make([]int, t)
	for i := range qs {
		qs[i] = i
	}
	return qs
}

// matPower raises a square complex matrix to a small positive power.
func matPower(u *mat.CDense, p int) *mat.CDense {
	r, _ := u.Dims()
	out := mat.NewCDense(r, r, nil)
	out.Copy(u)
	for i := 1; i < p; i++ {
		out = gates.Mul(out, u)
	}
	return out
}

// inverseFourierMatrix builds F† over t qubits:
// F†[x][y] = e^(-2πi·x·y / 2^t) / √(2^t).
func inverseFourierMatrix(t int) *mat.CDense {
	dim := 1 << t
	norm := 1 / math.Sqrt(float64(dim))
	f := mat.NewCDense(dim, dim, nil)
	for x := 0; x < dim; x++ {
		for y := 0; y < dim; y++ {
			angle := -2 * math.Pi * float64(x) * float64(y) / float64(dim)
			f.Set(x, y, cmplx.Exp(complex(0, angle))*complex(norm, 0))
		}
	}
	return f
}
