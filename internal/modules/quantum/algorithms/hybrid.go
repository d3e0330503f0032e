package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/gates"
)

// Constraint is a feasibility predicate over a candidate point.
type Constraint func([]float64) bool

const (
	hybridCandidates    = 8
	hybridPenaltyWeight = 1000.0
)

// HybridOptimize seeds a classical constrained minimization from quantum
// sampling: several candidate points in [0,1]^dim are drawn from
// randomized circuits (Hadamard plus a random RotationY per qubit,
// measured and rescaled), the candidates are filtered by constraint
// satisfaction, and the best feasible one seeds the classical refinement,
// which minimizes the objective plus a penalty per violated constraint.
func (l *Library) HybridOptimize(
	ctx context.Context,
	objective func([]float64) float64,
	constraints []Constraint,
	dim int,
	maxIterations int,
) (*OptimizationResult, error) {
	if objective == nil {
		return nil, fmt.Errorf("hybrid optimize: nil objective")
	}
	if dim < 1 {
		return nil, fmt.Errorf("hybrid optimize: dimension must be positive, got %d", dim)
	}

	feasible := func(x []float64) bool {
		for _, c := range constraints {
			if !c(x) {
				return false
			}
		}
		return true
	}

	// Quantum sampling phase.
	var seed []float64
	var bestAny []float64
	bestSeedVal := math.Inf(1)
	bestAnyVal := math.Inf(1)
	for i := 0; i < hybridCandidates; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, err := l.sampleCandidate(ctx, dim)
		if err != nil {
			return nil, fmt.Errorf("hybrid optimize: candidate %d: %w", i, err)
		}
		val := objective(candidate)
		if val < bestAnyVal {
			bestAny, bestAnyVal = candidate, val
		}
		if feasible(candidate) && val < bestSeedVal {
			seed, bestSeedVal = candidate, val
		}
	}
	if seed == nil {
		// No feasible draw; refine from the best infeasible candidate and
		// let the penalty term pull it into the feasible region.
		seed = bestAny
	}

	// Classical refinement with constraint penalties, projected to the
	// unit box the candidates were sampled from.
	penalized := func(x []float64) float64 {
		proj := clampUnitBox(x)
		val := objective(proj)
		for _, c := range constraints {
			if !c(proj) {
				val += hybridPenaltyWeight
			}
		}
		return val
	}

	result, err := l.minimizer.Minimize(ctx, penalized, seed, maxIterations)
	if err != nil {
		return nil, fmt.Errorf("hybrid optimize: %w", err)
	}

	result.Parameters = clampUnitBox(result.Parameters)
	result.Value = objective(result.Parameters)
	return result, nil
}

// sampleCandidate draws one point in [0,1]^dim from randomized circuits:
// each circuit applies Hadamard plus a random RotationY per qubit, and the
// per-qubit probability of |1⟩ supplies the coordinates.
func (l *Library) sampleCandidate(ctx context.Context, dim int) ([]float64, error) {
	n := l.numQubits
	point := make([]float64, 0, dim)

	for len(point) < dim {
		b := circuit.NewBuilder(n)
		for q := 0; q < n; q++ {
			b.AddGate(gates.Hadamard, []int{q})
			b.AddGate(gates.RotationY, []int{q}, l.rng.Float64()*2*math.Pi)
		}
		prog, err := b.Program()
		if err != nil {
			return nil, err
		}
		st, err := l.engine.Execute(ctx, prog)
		if err != nil {
			return nil, err
		}
		for q := 0; q < n && len(point) < dim; q++ {
			probs, err := st.Measure(q)
			if err != nil {
				return nil, err
			}
			point = append(point, probs["1"])
		}
	}
	return point, nil
}

func clampUnitBox(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i, v := range x {
		proj[i] = math.Max(0, math.Min(1, v))
	}
	return proj
}
