package algorithms

import (
	"context"
	"fmt"

	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/state"
)

// ApplyErrorCorrection applies decoherence at errorRate and then a
// simplified majority-style correction pass: probabilistic sign flips over
// the amplitudes followed by a coherence recovery that reclaims half of
// the coherence lost to the noise. Illustrative only - this is not a
// stabilizer code. Mutates the state in place.
func (l *Library) ApplyErrorCorrection(ctx context.Context, st *state.State, errorRate float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: nil state", state.ErrDimensionMismatch)
	}
	if errorRate < 0 || errorRate > 1 {
		return fmt.Errorf("error correction: rate %v outside [0, 1]", errorRate)
	}

	before := st.Coherence
	st.ApplyDecoherence(errorRate, l.rng)

	// Majority-style sign correction over the noisy amplitudes.
	for i := range st.Amplitudes {
		if l.rng.Float64() < errorRate/2 {
			st.Amplitudes[i] = -st.Amplitudes[i]
		}
	}
	st.Normalize()

	// Correction recovers half of the coherence the noise removed.
	recovered := st.Coherence + (before-st.Coherence)/2
	if recovered > 1 {
		recovered = 1
	}
	st.Coherence = recovered
	st.Metadata["error_corrected"] = "true"
	return nil
}
