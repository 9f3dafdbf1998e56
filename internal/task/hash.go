package task

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for algorithm migration without colliding with old identities.
const (
	DomainTask   = "motiq/task/v1"
	DomainResult = "motiq/result/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data); the null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func candidateIdentity(domain, job string, candidate map[string]string) (string, error) {
	if candidate == nil {
		candidate = map[string]string{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"job":       job,
		"candidate": candidate,
	})
	if err != nil {
		return "", fmt.Errorf("candidate identity: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// Hash computes the content-addressed identity of a task: a deterministic
// hash of (job, candidate). Two tasks for the same partial mapping in the
// same job hash identically, which lets the queue collapse duplicate
// sibling enqueues.
func (t Task) Hash() (string, error) {
	return candidateIdentity(DomainTask, t.Job, t.Candidate)
}

// ResultID computes the deterministic record key for a completed mapping.
// Redelivered tasks that rediscover the same mapping produce the same key,
// so the result store can deduplicate on write.
func ResultID(job string, candidate map[string]string) (string, error) {
	return candidateIdentity(DomainResult, job, candidate)
}
