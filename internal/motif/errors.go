package motif

import (
	"errors"
	"fmt"
)

// MalformedMotifError reports a motif source that does not describe a valid
// pattern graph. It is raised synchronously at kickoff time and never
// retried.
type MalformedMotifError struct {
	Node    string // offending node identifier, if any
	Message string
}

func (e *MalformedMotifError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("malformed motif: node %q: %s", e.Node, e.Message)
	}
	return fmt.Sprintf("malformed motif: %s", e.Message)
}

// IsMalformed reports whether err is (or wraps) a MalformedMotifError.
func IsMalformed(err error) bool {
	var me *MalformedMotifError
	return errors.As(err, &me)
}
