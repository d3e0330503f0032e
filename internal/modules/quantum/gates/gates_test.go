package gates

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatrix_AllKindsUnitary(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		params []float64
		dim    int
	}{
		{"hadamard", Hadamard, nil, 2},
		{"pauli_x", PauliX, nil, 2},
		{"pauli_y", PauliY, nil, 2},
		{"pauli_z", PauliZ, nil, 2},
		{"phase", Phase, []float64{math.Pi / 3}, 2},
		{"rotation_x", RotationX, []float64{0.7}, 2},
		{"rotation_y", RotationY, []float64{1.3}, 2},
		{"rotation_z", RotationZ, []float64{-2.1}, 2},
		{"cnot", CNOT, nil, 4},
		{"controlled_z", ControlledZ, nil, 4},
		{"swap", Swap, nil, 4},
		{"toffoli", Toffoli, nil, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Matrix(tt.kind, tt.params...)
			require.NoError(t, err)

			r, c := u.Dims()
			assert.Equal(t, tt.dim, r)
			assert.Equal(t, tt.dim, c)
			assert.True(t, IsUnitary(u, 1e-9), "U†U must be identity")
		})
	}
}

func TestMatrix_InvalidKind(t *testing.T) {
	_, err := Matrix(Kind(99))
	require.ErrorIs(t, err, ErrInvalidGateKind)
}

func TestMatrix_ParameterValidation(t *testing.T) {
	// Rotation without its angle
	_, err := Matrix(RotationY)
	require.ErrorIs(t, err, ErrMissingParameter)

	// Phase without its angle
	_, err = Matrix(Phase)
	require.ErrorIs(t, err, ErrMissingParameter)

	// Fixed gate with a stray parameter
	_, err = Matrix(PauliX, 0.5)
	require.ErrorIs(t, err, ErrMissingParameter)
}

func TestMatrix_HadamardValues(t *testing.T) {
	u, err := Matrix(Hadamard)
	require.NoError(t, err)

	h := 1.0 / math.Sqrt2
	assert.InDelta(t, h, real(u.At(0, 0)), 1e-12)
	assert.InDelta(t, h, real(u.At(0, 1)), 1e-12)
	assert.InDelta(t, h, real(u.At(1, 0)), 1e-12)
	assert.InDelta(t, -h, real(u.At(1, 1)), 1e-12)
}

func TestMatrix_PhaseAngle(t *testing.T) {
	theta := math.Pi / 4
	u, err := Matrix(Phase, theta)
	require.NoError(t, err)

	got := u.At(1, 1)
	want := cmplx.Exp(complex(0, theta))
	assert.InDelta(t, 0, cmplx.Abs(got-want), 1e-12)
}

func TestControlled_BlockStructure(t *testing.T) {
	x, err := Matrix(PauliX)
	require.NoError(t, err)

	cx := Controlled(x)
	r, c := cx.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 4, c)

	// Identity on the control-0 block, X on the control-1 block.
	want, err := Matrix(CNOT)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, 0, cmplx.Abs(cx.At(i, j)-want.At(i, j)), 1e-12)
		}
	}
	assert.True(t, IsUnitary(cx, 1e-9))
}

func TestMul(t *testing.T) {
	h, err := Matrix(Hadamard)
	require.NoError(t, err)

	// Hadamard is involutory: H·H = I.
	hh := Mul(h, h)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, 0, cmplx.Abs(hh.At(i, j)-want), 1e-12)
		}
	}

	// Matrix-vector shape: H|0⟩ = (|0⟩+|1⟩)/√2.
	psi := Mul(h, mat.NewCDense(2, 1, []complex128{1, 0}))
	r, c := psi.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 1, c)
	assert.InDelta(t, 1/math.Sqrt2, real(psi.At(0, 0)), 1e-12)
	assert.InDelta(t, 1/math.Sqrt2, real(psi.At(1, 0)), 1e-12)

	assert.Panics(t, func() {
		Mul(h, mat.NewCDense(3, 1, []complex128{1, 0, 0}))
	})
}

func TestIsUnitary_RejectsNonUnitary(t *testing.T) {
	m := mat.NewCDense(2, 2, []complex128{1, 0, 0, 2})
	assert.False(t, IsUnitary(m, 1e-9))

	rect := mat.NewCDense(2, 3, nil)
	assert.False(t, IsUnitary(rect, 1e-9))
}

func TestKindFromString_RoundTrip(t *testing.T) {
	for k := Hadamard; k <= ControlledZ; k++ {
		got, err := KindFromString(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := KindFromString("not_a_gate")
	require.ErrorIs(t, err, ErrInvalidGateKind)
}

func TestArityAndParams(t *testing.T) {
	assert.Equal(t, 1, Hadamard.Arity())
	assert.Equal(t, 2, CNOT.Arity())
	assert.Equal(t, 2, Swap.Arity())
	assert.Equal(t, 2, ControlledZ.Arity())
	assert.Equal(t, 3, Toffoli.Arity())
	assert.Equal(t, 1, Phase.ParamCount())
	assert.Equal(t, 0, PauliZ.ParamCount())
}
