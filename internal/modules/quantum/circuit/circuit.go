// Package circuit provides the gate-program model (an ordered, validated
// instruction list over a fixed qubit count) and the execution engine that
// turns a program into a quantum state.
package circuit

import (
	"errors"
	"fmt"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// ErrArityMismatch is returned when an instruction's operand count does not
// match its gate kind's arity.
var ErrArityMismatch = errors.New("gate arity mismatch")

// Instruction is one gate application: a kind, its ordered operand qubits,
// and the angle parameters for parameterized kinds.
type Instruction struct {
	Kind   gates.Kind `json:"kind"`
	Qubits []int      `json:"qubits"`
	Params []float64  `json:"params,omitempty"`
}

// Program is an ordered gate sequence over a fixed qubit count. Every
// instruction's qubit indices are distinct and strictly less than
// NumQubits; programs obtained from a Builder always satisfy this.
type Program struct {
	NumQubits    int           `json:"num_qubits"`
	Instructions []Instruction `json:"instructions"`
}

// Clone returns a deep copy of the program.
func (p Program) Clone() Program {
	instrs := make([]Instruction, len(p.Instructions))
	for i, in := range p.Instructions {
		instrs[i] = Instruction{
			Kind:   in.Kind,
			Qubits: append([]int(nil), in.Qubits...),
			Params: append([]float64(nil), in.Params...),
		}
	}
	return Program{NumQubits: p.NumQubits, Instructions: instrs}
}

// Validate re-checks every instruction against the program invariants.
// Programs assembled by hand (e.g. decoded from an API request) go through
// this before execution.
func (p Program) Validate() error {
	if p.NumQubits < 1 {
		return fmt.Errorf("%w: program needs a positive qubit count, got %d",
			state.ErrInvalidQubitIndex, p.NumQubits)
	}
	for i, in := range p.Instructions {
		if err := validateInstruction(p.NumQubits, in.Kind, in.Qubits, in.Params); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

// Builder accumulates gate instructions with eager validation. AddGate
// returns the builder for chaining; the first validation failure sticks
// and is reported by Program(). A builder can produce its program many
// times - building does not consume or mutate it.
type Builder struct {
	program Program
	err     error
}

// NewBuilder creates a builder for a circuit over numQubits qubits.
func NewBuilder(numQubits int) *Builder {
	b := &Builder{program: Program{NumQubits: numQubits}}
	if numQubits < 1 {
		b.err = fmt.Errorf("%w: circuit needs a positive qubit count, got %d",
			state.ErrInvalidQubitIndex, numQubits)
	}
	return b
}

// AddGate validates the gate against the circuit and appends it. Indices
// must be distinct and within [0, n); the operand count must match the
// gate's arity; parameterized kinds require their angle and fixed kinds
// reject parameters. Validation failures stick to the builder.
func (b *Builder) AddGate(kind gates.Kind, qubits []int, params ...float64) *Builder {
	if b.err != nil {
		return b
	}
	if err := validateInstruction(b.program.NumQubits, kind, qubits, params); err != nil {
		b.err = err
		return b
	}
	b.program.Instructions = append(b.program.Instructions, Instruction{
		Kind:   kind,
		Qubits: append([]int(nil), qubits...),
		Params: append([]float64(nil), params...),
	})
	return b
}

// Err returns the first validation failure, if any.
func (b *Builder) Err() error {
	return b.err
}

// Program returns the accumulated program, or the first validation failure.
func (b *Builder) Program() (Program, error) {
	if b.err != nil {
		return Program{}, b.err
	}
	return b.program.Clone(), nil
}

func validateInstruction(numQubits int, kind gates.Kind, qubits []int, params []float64) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", gates.ErrInvalidGateKind, int(kind))
	}
	if len(qubits) != kind.Arity() {
		return fmt.Errorf("%w: %s takes %d qubit(s), got %d",
			ErrArityMismatch, kind, kind.Arity(), len(qubits))
	}
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= numQubits {
			return fmt.Errorf("%w: qubit %d outside [0, %d)", state.ErrInvalidQubitIndex, q, numQubits)
		}
		if seen[q] {
			return fmt.Errorf("%w: qubit %d repeated in %s", state.ErrInvalidQubitIndex, q, kind)
		}
		seen[q] = true
	}
	if len(params) != kind.ParamCount() {
		return fmt.Errorf("%w: %s expects %d parameter(s), got %d",
			gates.ErrMissingParameter, kind, kind.ParamCount(), len(params))
	}
	return nil
}
