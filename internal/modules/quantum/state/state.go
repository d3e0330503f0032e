// Package state implements the dense state-vector data model: construction
// and normalization, the bit-indexed gate kernel, non-collapsing
// measurement, entanglement entropy, and decoherence.
package state

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrDimensionMismatch is returned when an amplitude vector or operator
	// does not match the declared qubit count.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidQubitIndex is returned for qubit indices outside [0, n) or
	// repeated within one operation.
	ErrInvalidQubitIndex = errors.New("invalid qubit index")
)

// State is a dense n-qubit state vector. The L2 norm of Amplitudes is 1
// after construction and after every mutation. Basis strings render with
// qubit 0 as the leftmost (most significant) character, so the basis index
// of a string is simply its binary value.
type State struct {
	NumQubits       int
	Amplitudes      []complex128
	EntanglementMap map[int][]int
	Coherence       float64
	Fidelity        float64
	Metadata        map[string]string
}

// New constructs a state over numQubits qubits from the given amplitudes.
// The vector is normalized on success. Fails with ErrDimensionMismatch if
// len(amplitudes) != 2^numQubits.
func New(numQubits int, amplitudes []complex128) (*State, error) {
	if numQubits < 1 {
		return nil, fmt.Errorf("%w: qubit count must be positive, got %d", ErrDimensionMismatch, numQubits)
	}
	if len(amplitudes) != 1<<numQubits {
		return nil, fmt.Errorf("%w: %d amplitudes for %d qubits (want %d)",
			ErrDimensionMismatch, len(amplitudes), numQubits, 1<<numQubits)
	}

	amps := make([]complex128, len(amplitudes))
	copy(amps, amplitudes)

	s := &State{
		NumQubits:       numQubits,
		Amplitudes:      amps,
		EntanglementMap: make(map[int][]int),
		Coherence:       1.0,
		Fidelity:        1.0,
		Metadata: map[string]string{
			"state_id": uuid.New().String(),
		},
	}
	s.Normalize()
	return s, nil
}

// Zero returns the all-zero basis state |0...0⟩ over numQubits qubits.
func Zero(numQubits int) *State {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	s, _ := New(numQubits, amps)
	return s
}

// ID returns the state's identity, assigned at construction.
func (s *State) ID() string {
	return s.Metadata["state_id"]
}

// Clone returns a deep copy with a fresh identity.
func (s *State) Clone() *State {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)

	ent := make(map[int][]int, len(s.EntanglementMap))
	for q, peers := range s.EntanglementMap {
		ent[q] = append([]int(nil), peers...)
	}

	meta := make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		meta[k] = v
	}
	meta["state_id"] = uuid.New().String()

	return &State{
		NumQubits:       s.NumQubits,
		Amplitudes:      amps,
		EntanglementMap: ent,
		Coherence:       s.Coherence,
		Fidelity:        s.Fidelity,
		Metadata:        meta,
	}
}

// Normalize rescales the amplitude vector to unit L2 norm. A zero-norm
// vector is reset to |0...0⟩ rather than producing NaNs.
func (s *State) Normalize() {
	var norm float64
	for _, a := range s.Amplitudes {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	if norm <= 0 {
		for i := range s.Amplitudes {
			s.Amplitudes[i] = 0
		}
		s.Amplitudes[0] = 1
		return
	}
	inv := complex(1/math.Sqrt(norm), 0)
	for i := range s.Amplitudes {
		s.Amplitudes[i] *= inv
	}
}

// bitMask returns the amplitude-index bit for qubit q (qubit 0 is the
// most significant bit).
func (s *State) bitMask(q int) int {
	return 1 << (s.NumQubits - 1 - q)
}

func (s *State) checkQubits(qubits []int) error {
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= s.NumQubits {
			return fmt.Errorf("%w: qubit %d outside [0, %d)", ErrInvalidQubitIndex, q, s.NumQubits)
		}
		if seen[q] {
			return fmt.Errorf("%w: qubit %d repeated", ErrInvalidQubitIndex, q)
		}
		seen[q] = true
	}
	return nil
}

// Apply applies a k-qubit unitary to the subspace spanned by the operand
// qubits via bit-indexed embedding: untouched qubits are implicitly
// extended with identity, so the cost is O(2^n) per gate rather than the
// O(4^n) of a full tensor-product expansion. The first operand qubit maps
// to the most significant bit of the gate's local index, matching the
// operand order of the gate library matrices.
func (s *State) Apply(u *mat.CDense, qubits ...int) error {
	if err := s.checkQubits(qubits); err != nil {
		return err
	}
	k := len(qubits)
	dim := 1 << k
	if r, c := u.Dims(); r != dim || c != dim {
		return fmt.Errorf("%w: %dx%d matrix for %d qubit operand(s)", ErrDimensionMismatch, r, c, k)
	}

	masks := make([]int, k)
	allMask := 0
	for i, q := range qubits {
		masks[i] = s.bitMask(q)
		allMask |= masks[i]
	}

	addr := make([]int, dim)
	old := make([]complex128, dim)

	for base := range s.Amplitudes {
		if base&allMask != 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			idx := base
			for b := 0; b < k; b++ {
				if j&(1<<(k-1-b)) != 0 {
					idx |= masks[b]
				}
			}
			addr[j] = idx
			old[j] = s.Amplitudes[idx]
		}
		for j := 0; j < dim; j++ {
			var sum complex128
			for l := 0; l < dim; l++ {
				sum += u.At(j, l) * old[l]
			}
			s.Amplitudes[addr[j]] = sum
		}
	}

	s.Normalize()
	return nil
}

// PhaseFlip multiplies the amplitude at each basis index satisfying the
// predicate by -1. This is the exact action of a diagonal phase oracle.
func (s *State) PhaseFlip(marked func(int) bool) {
	for i := range s.Amplitudes {
		if marked(i) {
			s.Amplitudes[i] = -s.Amplitudes[i]
		}
	}
}

// Measure returns the probability of every basis outcome without
// collapsing the state: it reports |amplitude|^2 per basis string and never
// draws a sample or mutates the state. With a subset of qubit indices, the
// probability mass of the traced-out qubits is summed into the outcomes of
// the subset, keyed in the order the subset was given.
func (s *State) Measure(subset ...int) (map[string]float64, error) {
	if len(subset) == 0 {
		subset = make([]int, s.NumQubits)
		for q := range subset {
			subset[q] = q
		}
	}
	if err := s.checkQubits(subset); err != nil {
		return nil, err
	}

	k := len(subset)
	out := make(map[string]float64, 1<<k)

	// Every outcome string is present, including zero-probability ones.
	key := make([]byte, k)
	for o := 0; o < 1<<k; o++ {
		for b := 0; b < k; b++ {
			if o&(1<<(k-1-b)) != 0 {
				key[b] = '1'
			} else {
				key[b] = '0'
			}
		}
		out[string(key)] = 0
	}

	for i, a := range s.Amplitudes {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p == 0 {
			continue
		}
		for b, q := range subset {
			if i&s.bitMask(q) != 0 {
				key[b] = '1'
			} else {
				key[b] = '0'
			}
		}
		out[string(key)] += p
	}
	return out, nil
}

// MostProbable returns the basis index with the highest probability.
func (s *State) MostProbable() int {
	best, bestP := 0, -1.0
	for i, a := range s.Amplitudes {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p > bestP {
			best, bestP = i, p
		}
	}
	return best
}

// EntanglementEntropy computes the von Neumann entropy (in bits) of the
// reduced state on the given partition, tracing out the complementary
// qubits. Eigenvalues of the reduced density matrix are obtained from the
// real symmetric embedding [[X, -Y], [Y, X]] of the Hermitian matrix
// X + iY, in which each eigenvalue appears exactly twice. Zero eigenvalues
// contribute nothing (p·log2(p) is treated as 0 at p=0).
func (s *State) EntanglementEntropy(partition []int) (float64, error) {
	if len(partition) == 0 {
		return 0, fmt.Errorf("%w: empty partition", ErrInvalidQubitIndex)
	}
	if err := s.checkQubits(partition); err != nil {
		return 0, err
	}

	k := len(partition)
	inPartition := make(map[int]bool, k)
	for _, q := range partition {
		inPartition[q] = true
	}
	var complement []int
	for q := 0; q < s.NumQubits; q++ {
		if !inPartition[q] {
			complement = append(complement, q)
		}
	}

	dimA := 1 << k
	dimB := 1 << len(complement)

	// index(a, b) recombines a partition assignment and a complement
	// assignment into a full basis index.
	index := func(a, b int) int {
		idx := 0
		for i, q := range partition {
			if a&(1<<(k-1-i)) != 0 {
				idx |= s.bitMask(q)
			}
		}
		for i, q := range complement {
			if b&(1<<(len(complement)-1-i)) != 0 {
				idx |= s.bitMask(q)
			}
		}
		return idx
	}

	// Reduced density matrix rho[a][a'] = sum_b psi(a,b) * conj(psi(a',b)).
	rho := make([][]complex128, dimA)
	for a := range rho {
		rho[a] = make([]complex128, dimA)
	}
	for b := 0; b < dimB; b++ {
		for a := 0; a < dimA; a++ {
			pa := s.Amplitudes[index(a, b)]
			if pa == 0 {
				continue
			}
			for a2 := 0; a2 < dimA; a2++ {
				rho[a][a2] += pa * cmplx.Conj(s.Amplitudes[index(a2, b)])
			}
		}
	}

	// Real symmetric embedding of the Hermitian rho.
	embed := mat.NewSymDense(2*dimA, nil)
	for i := 0; i < dimA; i++ {
		for j := i; j < dimA; j++ {
			x := real(rho[i][j])
			y := imag(rho[i][j])
			embed.SetSym(i, j, x)
			embed.SetSym(dimA+i, dimA+j, x)
			embed.SetSym(i, dimA+j, -y)
			if i != j {
				embed.SetSym(j, dimA+i, y)
			}
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(embed, false) {
		return 0, fmt.Errorf("entanglement entropy: eigendecomposition failed")
	}

	var entropy float64
	for _, p := range eig.Values(nil) {
		if p <= 1e-12 {
			continue
		}
		entropy -= p * math.Log2(p)
	}
	// Each eigenvalue of rho appears twice in the embedding.
	return entropy / 2, nil
}

// ApplyDecoherence adds zero-mean Gaussian noise with sigma noiseLevel to
// every amplitude, renormalizes, and multiplies Coherence by
// (1 - noiseLevel), floored at 0. This is the engine's only source of
// non-determinism; pass a seeded source for reproducible runs. A nil
// source falls back to a time-seeded one.
func (s *State) ApplyDecoherence(noiseLevel float64, src rand.Source) {
	if noiseLevel <= 0 {
		return
	}
	if noiseLevel > 1 {
		noiseLevel = 1
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	noise := distuv.Normal{Mu: 0, Sigma: noiseLevel, Src: src}
	for i := range s.Amplitudes {
		s.Amplitudes[i] += complex(noise.Rand(), noise.Rand())
	}
	s.Normalize()

	s.Coherence *= 1 - noiseLevel
	if s.Coherence < 0 {
		s.Coherence = 0
	}
}

// MarkEntangled records qubits a and b as mutually entangled.
func (s *State) MarkEntangled(a, b int) {
	add := func(q, peer int) {
		for _, p := range s.EntanglementMap[q] {
			if p == peer {
				return
			}
		}
		s.EntanglementMap[q] = append(s.EntanglementMap[q], peer)
	}
	add(a, b)
	add(b, a)
}

// BasisString renders a basis index as its bitstring, qubit 0 leftmost.
func (s *State) BasisString(index int) string {
	return fmt.Sprintf("%0*b", s.NumQubits, index)
}

// Norm returns the L2 norm of the amplitude vector.
func (s *State) Norm() float64 {
	var norm float64
	for _, a := range s.Amplitudes {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(norm)
}
