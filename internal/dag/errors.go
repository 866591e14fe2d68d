package dag

import (
	"errors"
	"fmt"
)

// Reason classifies why an edge was refused.
type Reason string

const (
	ReasonSelfEdge    Reason = "self_edge"
	ReasonDuplicate   Reason = "duplicate"
	ReasonCycle       Reason = "cycle"
	ReasonUnknownTask Reason = "unknown_task"
)

var (
	ErrSelfEdge      = errors.New("a task cannot depend on itself")
	ErrDuplicateEdge = errors.New("this dependency already exists")
	ErrCycle         = errors.New("this dependency would create a cycle")
	ErrUnknownTask   = errors.New("task not found")
)

// EdgeError is the validation result for a refused edge. It unwraps to the
// sentinel matching its Reason.
type EdgeError struct {
	Reason      Reason
	Predecessor string
	Successor   string
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("dependency %s -> %s rejected: %s", e.Predecessor, e.Successor, e.Unwrap())
}

// Unwrap returns the sentinel error for the reason.
func (e *EdgeError) Unwrap() error {
	switch e.Reason {
	case ReasonSelfEdge:
		return ErrSelfEdge
	case ReasonDuplicate:
		return ErrDuplicateEdge
	case ReasonCycle:
		return ErrCycle
	default:
		return ErrUnknownTask
	}
}

// Message is the human-readable reason suitable for a validation notice.
func (e *EdgeError) Message() string {
	return e.Unwrap().Error()
}

func newEdgeError(reason Reason, pred, succ string) *EdgeError {
	return &EdgeError{Reason: reason, Predecessor: pred, Successor: succ}
}
