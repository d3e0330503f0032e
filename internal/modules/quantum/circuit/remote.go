package circuit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RemoteBackend is an HTTP client for an external high-fidelity simulator
// service. When configured, the engine delegates execution to it for
// bit-exact results; unavailability falls back to the embedded simulator.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewRemoteBackend creates a client for the simulator service at baseURL.
func NewRemoteBackend(baseURL string, log zerolog.Logger) *RemoteBackend {
	return &RemoteBackend{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second, // large circuits can take time
		},
		log: log.With().Str("client", "simulator").Logger(),
	}
}

// Name identifies the backend in state metadata.
func (b *RemoteBackend) Name() string { return "remote" }

// simulateRequest mirrors the simulator service's request schema.
type simulateRequest struct {
	NumQubits    int                 `json:"num_qubits"`
	Instructions []remoteInstruction `json:"instructions"`
}

type remoteInstruction struct {
	Kind   string    `json:"kind"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
}

// simulateResponse is the standard response format from the service.
type simulateResponse struct {
	Success    bool        `json:"success"`
	Error      *string     `json:"error"`
	Amplitudes [][2]float64 `json:"amplitudes"` // [re, im] pairs
}

// Run posts the program to the service and decodes the amplitude vector.
func (b *RemoteBackend) Run(ctx context.Context, program Program) ([]complex128, error) {
	req := simulateRequest{NumQubits: program.NumQubits}
	for _, in := range program.Instructions {
		req.Instructions = append(req.Instructions, remoteInstruction{
			Kind:   in.Kind.String(),
			Qubits: in.Qubits,
			Params: in.Params,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal simulate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build simulate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("simulator service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simulator service returned %d: %s", resp.StatusCode, string(raw))
	}

	var sr simulateResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse simulator response: %w", err)
	}
	if !sr.Success {
		msg := "unknown error"
		if sr.Error != nil {
			msg = *sr.Error
		}
		return nil, fmt.Errorf("simulator service error: %s", msg)
	}
	if len(sr.Amplitudes) != 1<<program.NumQubits {
		return nil, fmt.Errorf("simulator returned %d amplitudes, want %d",
			len(sr.Amplitudes), 1<<program.NumQubits)
	}

	amps := make([]complex128, len(sr.Amplitudes))
	for i, pair := range sr.Amplitudes {
		amps[i] = complex(pair[0], pair[1])
	}
	return amps, nil
}
