// Package gates provides the gate library: a closed set of quantum gate
// kinds and the unitary matrix each one denotes. The package is pure -
// building a matrix has no side effects and touches no shared state.
package gates

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidGateKind is returned for a gate kind outside the closed set.
	ErrInvalidGateKind = errors.New("invalid gate kind")
	// ErrMissingParameter is returned when a parameterized gate is requested
	// without its angle, or a fixed gate is given parameters.
	ErrMissingParameter = errors.New("missing gate parameter")
)

// Kind identifies one gate in the closed gate set.
type Kind int

const (
	Hadamard Kind = iota
	PauliX
	PauliY
	PauliZ
	CNOT
	Toffoli
	Phase
	RotationX
	RotationY
	RotationZ
	Swap
	ControlledZ
)

var kindNames = map[Kind]string{
	Hadamard:    "hadamard",
	PauliX:      "pauli_x",
	PauliY:      "pauli_y",
	PauliZ:      "pauli_z",
	CNOT:        "cnot",
	Toffoli:     "toffoli",
	Phase:       "phase",
	RotationX:   "rotation_x",
	RotationY:   "rotation_y",
	RotationZ:   "rotation_z",
	Swap:        "swap",
	ControlledZ: "controlled_z",
}

// String returns the canonical lowercase name of the gate kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a member of the closed gate set.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// KindFromString resolves a gate name (as accepted by the API surface)
// back to its Kind. Fails with ErrInvalidGateKind for unknown names.
func KindFromString(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGateKind, name)
}

// Kinds returns every member of the gate set in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := Hadamard; k <= ControlledZ; k++ {
		out = append(out, k)
	}
	return out
}

// MarshalJSON encodes the kind as its canonical name.
func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGateKind, int(k))
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a gate name into its kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	kind, err := KindFromString(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Arity returns the number of qubit operands the gate kind requires.
func (k Kind) Arity() int {
	switch k {
	case Hadamard, PauliX, PauliY, PauliZ, Phase, RotationX, RotationY, RotationZ:
		return 1
	case CNOT, Swap, ControlledZ:
		return 2
	case Toffoli:
		return 3
	}
	return 0
}

// ParamCount returns the number of angle parameters the gate kind requires.
// Phase and the rotation gates take exactly one angle; all others take none.
func (k Kind) ParamCount() int {
	switch k {
	case Phase, RotationX, RotationY, RotationZ:
		return 1
	}
	return 0
}

// Matrix returns the dense unitary matrix for the gate kind. Parameterized
// kinds (Phase, RotationX/Y/Z) require exactly one angle in radians;
// passing parameters to a fixed gate is rejected. Every returned matrix
// satisfies U†U = I to within 1e-9.
func Matrix(k Kind, params ...float64) (*mat.CDense, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGateKind, int(k))
	}
	if len(params) != k.ParamCount() {
		return nil, fmt.Errorf("%w: %s expects %d parameter(s), got %d",
			ErrMissingParameter, k, k.ParamCount(), len(params))
	}

	switch k {
	case Hadamard:
		h := complex(1.0/math.Sqrt2, 0)
		return mat.NewCDense(2, 2, []complex128{h, h, h, -h}), nil

	case PauliX:
		return mat.NewCDense(2, 2, []complex128{0, 1, 1, 0}), nil

	case PauliY:
		return mat.NewCDense(2, 2, []complex128{0, -1i, 1i, 0}), nil

	case PauliZ:
		return mat.NewCDense(2, 2, []complex128{1, 0, 0, -1}), nil

	case Phase:
		return mat.NewCDense(2, 2, []complex128{
			1, 0,
			0, cmplx.Exp(complex(0, params[0])),
		}), nil

	case RotationX:
		c := complex(math.Cos(params[0]/2), 0)
		s := complex(0, -math.Sin(params[0]/2))
		return mat.NewCDense(2, 2, []complex128{c, s, s, c}), nil

	case RotationY:
		c := complex(math.Cos(params[0]/2), 0)
		s := complex(math.Sin(params[0]/2), 0)
		return mat.NewCDense(2, 2, []complex128{c, -s, s, c}), nil

	case RotationZ:
		p := cmplx.Exp(complex(0, params[0]/2))
		return mat.NewCDense(2, 2, []complex128{cmplx.Conj(p), 0, 0, p}), nil

	case CNOT:
		// Control is the first operand, target the second.
		return mat.NewCDense(4, 4, []complex128{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 0, 1,
			0, 0, 1, 0,
		}), nil

	case ControlledZ:
		return mat.NewCDense(4, 4, []complex128{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, -1,
		}), nil

	case Swap:
		return mat.NewCDense(4, 4, []complex128{
			1, 0, 0, 0,
			0, 0, 1, 0,
			0, 1, 0, 0,
			0, 0, 0, 1,
		}), nil

	case Toffoli:
		m := identity(8)
		// |110⟩ <-> |111⟩
		m.Set(6, 6, 0)
		m.Set(7, 7, 0)
		m.Set(6, 7, 1)
		m.Set(7, 6, 1)
		return m, nil
	}

	return nil, fmt.Errorf("%w: %d", ErrInvalidGateKind, int(k))
}

// Controlled extends a unitary with one control qubit: the result is the
// block matrix diag(I, U), acting as identity when the control is |0⟩.
// Used by phase estimation for controlled-U applications.
func Controlled(u *mat.CDense) *mat.CDense {
	r, c := u.Dims()
	out := mat.NewCDense(2*r, 2*c, nil)
	for i := 0; i < r; i++ {
		out.Set(i, i, 1)
		for j := 0; j < c; j++ {
			out.Set(r+i, c+j, u.At(i, j))
		}
	}
	return out
}

// Mul returns the matrix product a·b. CDense carries no multiplication
// method, so the product runs on the cblas128 kernel directly.
func Mul(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		panic(fmt.Sprintf("gates: dimension mismatch in product, %dx%d by %dx%d", ar, ac, br, bc))
	}
	out := mat.NewCDense(ar, bc, nil)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	return out
}

// IsUnitary reports whether U†U = I to within tol.
func IsUnitary(u *mat.CDense, tol float64) bool {
	r, c := u.Dims()
	if r != c {
		return false
	}
	prod := mat.NewCDense(r, c, nil)
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, u.RawCMatrix(), u.RawCMatrix(), 0, prod.RawCMatrix())
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(prod.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return true
}

func identity(n int) *mat.CDense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
