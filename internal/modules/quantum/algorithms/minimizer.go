// Package algorithms provides the higher-level quantum routines built from
// the circuit engine, the state kernel, and a classical numeric optimizer:
// entanglement construction, teleportation modeling, Grover search,
// variational eigensolving, Fourier transform, phase estimation, a small
// variational classifier, error-correction illustration, and hybrid
// classical/quantum optimization.
package algorithms

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// OptimizationResult carries an optimal parameter vector, the achieved
// objective value, and the iteration count consumed. Hitting the iteration
// cap is a terminal result, never an error.
type OptimizationResult struct {
	Parameters []float64 `json:"parameters"`
	Value      float64   `json:"value"`
	Iterations int       `json:"iterations"`
}

// Minimizer is the classical optimizer capability: any derivative-free
// minimizer satisfies this contract.
type Minimizer interface {
	Minimize(ctx context.Context, objective func([]float64) float64, initial []float64, maxIterations int) (*OptimizationResult, error)
}

// NelderMeadMinimizer minimizes with gonum's derivative-free Nelder-Mead
// method. A context deadline is mapped onto the optimizer's runtime limit,
// and cancellation is checked on every objective evaluation.
type NelderMeadMinimizer struct{}

// Minimize runs the optimization for at most maxIterations major
// iterations. Reaching the iteration or runtime cap reports the best point
// found so far rather than failing.
func (NelderMeadMinimizer) Minimize(
	ctx context.Context,
	objective func([]float64) float64,
	initial []float64,
	maxIterations int,
) (*OptimizationResult, error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("minimize: empty initial parameter vector")
	}
	if maxIterations <= 0 {
		maxIterations = 100
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				// Poison further progress; the best point so far is kept.
				return math.Inf(1)
			}
			return objective(x)
		},
	}

	settings := &optimize.Settings{
		MajorIterations: maxIterations,
	}
	if deadline, ok := ctx.Deadline(); ok {
		settings.Runtime = time.Until(deadline)
	}

	start := append([]float64(nil), initial...)
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	switch result.Status {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.FunctionThreshold,
		optimize.IterationLimit,
		optimize.RuntimeLimit,
		optimize.FunctionEvaluationLimit:
		// All terminal results: the point at the cap is still an answer.
	default:
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		return nil, fmt.Errorf("optimization did not converge: status=%v", result.Status)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &OptimizationResult{
		Parameters: result.X,
		Value:      result.F,
		Iterations: result.Stats.MajorIterations,
	}, nil
}
