package circuit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

func TestBuilder_ValidProgram(t *testing.T) {
	p, err := NewBuilder(2).
		AddGate(gates.Hadamard, []int{0}).
		AddGate(gates.CNOT, []int{0, 1}).
		Program()
	require.NoError(t, err)

	assert.Equal(t, 2, p.NumQubits)
	require.Len(t, p.Instructions, 2)
	assert.Equal(t, gates.Hadamard, p.Instructions[0].Kind)
	assert.Equal(t, []int{0, 1}, p.Instructions[1].Qubits)
}

func TestBuilder_RejectsBadQubitCount(t *testing.T) {
	_, err := NewBuilder(0).Program()
	require.ErrorIs(t, err, state.ErrInvalidQubitIndex)
}

func TestBuilder_StickyError(t *testing.T) {
	b := NewBuilder(2).
		AddGate(gates.Hadamard, []int{5}).
		AddGate(gates.CNOT, []int{0, 1})

	require.ErrorIs(t, b.Err(), state.ErrInvalidQubitIndex)

	// The instruction after the failure is not appended.
	_, err := b.Program()
	require.Error(t, err)
}

func TestBuilder_ValidationCases(t *testing.T) {
	tests := []struct {
		name    string
		kind    gates.Kind
		qubits  []int
		params  []float64
		wantErr error
	}{
		{"unknown kind", gates.Kind(99), []int{0}, nil, gates.ErrInvalidGateKind},
		{"arity too few", gates.CNOT, []int{0}, nil, ErrArityMismatch},
		{"arity too many", gates.Hadamard, []int{0, 1}, nil, ErrArityMismatch},
		{"repeated operand", gates.CNOT, []int{1, 1}, nil, state.ErrInvalidQubitIndex},
		{"negative operand", gates.Hadamard, []int{-1}, nil, state.ErrInvalidQubitIndex},
		{"missing angle", gates.RotationX, []int{0}, nil, gates.ErrMissingParameter},
		{"unexpected angle", gates.PauliX, []int{0}, []float64{1.0}, gates.ErrMissingParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(2).AddGate(tt.kind, tt.qubits, tt.params...)
			require.ErrorIs(t, b.Err(), tt.wantErr)
		})
	}
}

func TestBuilder_ProgramIsACopy(t *testing.T) {
	b := NewBuilder(1).AddGate(gates.Hadamard, []int{0})

	p1, err := b.Program()
	require.NoError(t, err)
	p1.Instructions[0].Qubits[0] = 99

	p2, err := b.Program()
	require.NoError(t, err)
	assert.Equal(t, 0, p2.Instructions[0].Qubits[0])
}

func TestProgram_Validate(t *testing.T) {
	p := Program{
		NumQubits: 2,
		Instructions: []Instruction{
			{Kind: gates.Hadamard, Qubits: []int{0}},
			{Kind: gates.CNOT, Qubits: []int{0, 7}},
		},
	}
	err := p.Validate()
	require.ErrorIs(t, err, state.ErrInvalidQubitIndex)
	assert.Contains(t, err.Error(), "instruction 1")
}

func TestEngine_ExecuteBellProgram(t *testing.T) {
	p, err := NewBuilder(2).
		AddGate(gates.Hadamard, []int{0}).
		AddGate(gates.CNOT, []int{0, 1}).
		Program()
	require.NoError(t, err)

	eng := NewEngine(nil, zerolog.Nop())
	st, err := eng.Execute(context.Background(), p)
	require.NoError(t, err)

	probs, err := st.Measure()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, probs["00"], 1e-9)
	assert.InDelta(t, 0.0, probs["01"], 1e-9)
	assert.InDelta(t, 0.0, probs["10"], 1e-9)
	assert.InDelta(t, 0.5, probs["11"], 1e-9)
	assert.Equal(t, "statevector", st.Metadata["backend"])
}

func TestEngine_GateOrderMatters(t *testing.T) {
	eng := NewEngine(nil, zerolog.Nop())

	hx, err := NewBuilder(1).
		AddGate(gates.Hadamard, []int{0}).
		AddGate(gates.PauliX, []int{0}).
		Program()
	require.NoError(t, err)

	xh, err := NewBuilder(1).
		AddGate(gates.PauliX, []int{0}).
		AddGate(gates.Hadamard, []int{0}).
		Program()
	require.NoError(t, err)

	a, err := eng.Execute(context.Background(), hx)
	require.NoError(t, err)
	b, err := eng.Execute(context.Background(), xh)
	require.NoError(t, err)

	// H then X gives (|1⟩+|0⟩)/√2; X then H gives (|0⟩-|1⟩)/√2.
	assert.InDelta(t, real(a.Amplitudes[1]), -real(b.Amplitudes[1]), 1e-9)
	assert.NotEqual(t, a.Amplitudes, b.Amplitudes)
}

func TestEngine_Deterministic(t *testing.T) {
	p, err := NewBuilder(3).
		AddGate(gates.Hadamard, []int{0}).
		AddGate(gates.RotationY, []int{1}, 0.7).
		AddGate(gates.CNOT, []int{1, 2}).
		AddGate(gates.Phase, []int{2}, 1.1).
		Program()
	require.NoError(t, err)

	eng := NewEngine(nil, zerolog.Nop())
	a, err := eng.Execute(context.Background(), p)
	require.NoError(t, err)
	b, err := eng.Execute(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, a.Amplitudes, b.Amplitudes)
}

func TestEngine_ValidationErrorNotFallback(t *testing.T) {
	eng := NewEngine(nil, zerolog.Nop())
	_, err := eng.Execute(context.Background(), Program{NumQubits: 0})
	require.ErrorIs(t, err, state.ErrInvalidQubitIndex)
}

type failingBackend struct{}

func (failingBackend) Name() string { return "remote" }

func (failingBackend) Run(ctx context.Context, program Program) ([]complex128, error) {
	return nil, errors.New("connection refused")
}

func TestEngine_FallsBackToEmbedded(t *testing.T) {
	p, err := NewBuilder(1).AddGate(gates.Hadamard, []int{0}).Program()
	require.NoError(t, err)

	eng := NewEngine(failingBackend{}, zerolog.Nop())
	assert.Equal(t, "remote", eng.BackendName())

	st, err := eng.Execute(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "statevector", st.Metadata["backend"])
}

func TestEngine_CancelledContext(t *testing.T) {
	p, err := NewBuilder(1).AddGate(gates.Hadamard, []int{0}).Program()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(nil, zerolog.Nop())
	_, err = eng.Execute(ctx, p)
	require.ErrorIs(t, err, context.Canceled)
}
