package algorithms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumSquaresAround(center float64) func([]float64) float64 {
	return func(x []float64) float64 {
		var s float64
		for _, v := range x {
			d := v - center
			s += d * d
		}
		return s
	}
}

func TestHybridOptimize_Unconstrained(t *testing.T) {
	lib := testLibrary(t, 2)

	result, err := lib.HybridOptimize(context.Background(), sumSquaresAround(0.5), nil, 2, 200)
	require.NoError(t, err)

	assert.Less(t, result.Value, 0.01)
	require.Len(t, result.Parameters, 2)
	for _, v := range result.Parameters {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestHybridOptimize_Constrained(t *testing.T) {
	lib := testLibrary(t, 2)

	// Minimum of the unconstrained objective sits at 0.5 per coordinate;
	// the constraint pushes the first coordinate up to 0.6.
	atLeast := func(x []float64) bool { return x[0] >= 0.6 }

	result, err := lib.HybridOptimize(context.Background(), sumSquaresAround(0.5), []Constraint{atLeast}, 2, 300)
	require.NoError(t, err)

	assert.True(t, atLeast(result.Parameters))
	// The best feasible value is 0.01, at (0.6, 0.5).
	assert.GreaterOrEqual(t, result.Value, 0.01-1e-9)
	assert.Less(t, result.Value, 0.05)
}

func TestHybridOptimize_Validation(t *testing.T) {
	lib := testLibrary(t, 2)

	_, err := lib.HybridOptimize(context.Background(), nil, nil, 2, 50)
	require.Error(t, err)

	_, err = lib.HybridOptimize(context.Background(), sumSquaresAround(0), nil, 0, 50)
	require.Error(t, err)
}

func TestHybridOptimize_Cancelled(t *testing.T) {
	lib := testLibrary(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lib.HybridOptimize(ctx, sumSquaresAround(0), nil, 2, 50)
	require.ErrorIs(t, err, context.Canceled)
}
