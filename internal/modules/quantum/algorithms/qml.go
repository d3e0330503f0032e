package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

const (
	classifierEpochs       = 20
	classifierLearningRate = 0.3
)

// TrainClassifier fits the variational classifier circuit to the samples:
// per-sample angle encoding (a RotationY per feature) followed by a small
// variational layer (RotationZ per qubit, an entangling CNOT chain, and a
// final RotationY per qubit). Training runs a fixed epoch count of
// randomized parameter nudges scaled by prediction error - a heuristic
// trainer, not a convergent gradient method. Returns the trained
// parameters (2n values).
func (l *Library) TrainClassifier(ctx context.Context, data [][]float64, labels []float64) ([]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("train classifier: no samples")
	}
	if len(data) != len(labels) {
		return nil, fmt.Errorf("%w: %d samples but %d labels",
			state.ErrDimensionMismatch, len(data), len(labels))
	}

	n := l.numQubits
	params := make([]float64, 2*n)
	for i := range params {
		params[i] = (l.rng.Float64() - 0.5) * 0.2
	}

	for epoch := 0; epoch < classifierEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, sample := range data {
			predicted, err := l.Classify(ctx, sample, params)
			if err != nil {
				return nil, fmt.Errorf("train classifier: sample %d: %w", i, err)
			}
			residual := labels[i] - predicted
			if math.Abs(residual) < 1e-9 {
				continue
			}
			for p := range params {
				params[p] += classifierLearningRate * residual * (l.rng.Float64() - 0.5)
			}
		}
	}
	return params, nil
}

// Classify runs the classifier circuit for one sample and returns the
// probability of measuring qubit 0 as |1⟩.
func (l *Library) Classify(ctx context.Context, sample []float64, params []float64) (float64, error) {
	n := l.numQubits
	if len(params) != 2*n {
		return 0, fmt.Errorf("%w: %d classifier parameters for %d qubits (want %d)",
			state.ErrDimensionMismatch, len(params), n, 2*n)
	}

	b := circuit.NewBuilder(n)
	// Angle encoding: one RotationY per feature, wrapping over the qubits.
	for f, v := range sample {
		b.AddGate(gates.RotationY, []int{f % n}, v)
	}
	for q := 0; q < n; q++ {
		b.AddGate(gates.RotationZ, []int{q}, params[q])
	}
	for q := 0; q+1 < n; q++ {
		b.AddGate(gates.CNOT, []int{q, q + 1})
	}
	for q := 0; q < n; q++ {
		b.AddGate(gates.RotationY, []int{q}, params[n+q])
	}

	prog, err := b.Program()
	if err != nil {
		return 0, err
	}
	st, err := l.engine.Execute(ctx, prog)
	if err != nil {
		return 0, err
	}

	probs, err := st.Measure(0)
	if err != nil {
		return 0, err
	}
	return probs["1"], nil
}
