// Package task defines the queue payload exchanged between kickoff and
// workers, its JSON codec, and the content-addressed identities used to
// deduplicate tasks and result records.
package task

import (
	"encoding/json"
	"fmt"

	"github.com/motiq/motiq/internal/motif"
)

// Task is one unit of queued work: a job identifier plus a serialized
// partial candidate awaiting expansion. The motif and its precomputed
// ranking travel with every task so workers stay stateless.
type Task struct {
	Job             string            `json:"job"`
	Motif           motif.Doc         `json:"motif"`
	Candidate       map[string]string `json:"candidate"`
	Directed        bool              `json:"directed"`
	Interestingness map[string]int    `json:"interestingness,omitempty"`
}

// Encode serializes the task for the queue.
func (t Task) Encode() ([]byte, error) {
	if t.Job == "" {
		return nil, fmt.Errorf("encode task: job identifier is required")
	}
	if t.Candidate == nil {
		t.Candidate = map[string]string{} // root candidate is {}, not null
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode task: %w", err)
	}
	return b, nil
}

// Decode parses a queue payload. Structural motif validity is checked later
// by motif.FromDoc; Decode only enforces the envelope.
func Decode(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if t.Job == "" {
		return Task{}, fmt.Errorf("decode task: missing job identifier")
	}
	if t.Candidate == nil {
		t.Candidate = map[string]string{}
	}
	if len(t.Motif.Nodes) == 0 {
		return Task{}, fmt.Errorf("decode task: missing motif")
	}
	return t, nil
}
