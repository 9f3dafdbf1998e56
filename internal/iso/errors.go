package iso

import (
	"errors"
	"fmt"
)

// InvalidCandidateError reports a candidate that binds motif nodes absent
// from its own motif payload. This is a producer bug, not a transient
// condition: the task is logged and dropped, never retried.
type InvalidCandidateError struct {
	Node string
}

func (e *InvalidCandidateError) Error() string {
	return fmt.Sprintf("invalid candidate: motif node %q not in motif", e.Node)
}

// IsInvalidCandidate reports whether err is (or wraps) an
// InvalidCandidateError.
func IsInvalidCandidate(err error) bool {
	var ie *InvalidCandidateError
	return errors.As(err, &ie)
}
