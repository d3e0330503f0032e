// Package runs persists completed algorithm executions and streams run
// events to subscribers.
package runs

import (
	"encoding/json"
	"time"
)

// Run is one completed algorithm execution: what ran, how long it took,
// the JSON result payload, and a compact snapshot of the final quantum
// state.
type Run struct {
	ID         string          `json:"id"`
	Algorithm  string          `json:"algorithm"`
	NumQubits  int             `json:"num_qubits"`
	Backend    string          `json:"backend,omitempty"`
	DurationMS float64         `json:"duration_ms"`
	Result     json.RawMessage `json:"result"`
	Snapshot   []byte          `json:"-"` // msgpack-encoded StateSnapshot
	CreatedAt  time.Time       `json:"created_at"`
}

// StateSnapshot is the persisted form of a quantum state. Amplitudes are
// split into real and imaginary planes so the blob stays a plain msgpack
// array pair.
type StateSnapshot struct {
	NumQubits     int               `msgpack:"num_qubits"`
	AmplitudesRe  []float64         `msgpack:"amplitudes_re"`
	AmplitudesIm  []float64         `msgpack:"amplitudes_im"`
	Coherence     float64           `msgpack:"coherence"`
	Fidelity      float64           `msgpack:"fidelity"`
	Metadata      map[string]string `msgpack:"metadata,omitempty"`
	Entanglements map[int][]int     `msgpack:"entanglements,omitempty"`
}

// Event is pushed to feed subscribers when a run completes.
type Event struct {
	Type string `json:"type"`
	Run  *Run   `json:"run"`
}
