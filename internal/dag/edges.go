package dag

import (
	"fmt"

	"github.com/specialistvlad/taskgrid/internal/model"
)

// WouldCreateCycle reports whether adding predecessorID -> successorID to
// edges would introduce a cycle. It must return false before an edge is
// persisted.
func WouldCreateCycle(edges []model.Edge, predecessorID, successorID string) bool {
	if predecessorID == successorID {
		return true
	}
	return New(edges).WouldCreateCycle(predecessorID, successorID)
}

// AllPredecessors returns every task that must complete, directly or
// transitively, before taskID.
func AllPredecessors(edges []model.Edge, taskID string) Set {
	return New(edges).AllPredecessors(taskID)
}

// AllSuccessors returns every task that waits, directly or transitively, on taskID.
func AllSuccessors(edges []model.Edge, taskID string) Set {
	return New(edges).AllSuccessors(taskID)
}

// InvalidPredecessors returns the set a dependency picker must disable when
// choosing predecessors for taskID.
func InvalidPredecessors(edges []model.Edge, taskID string) Set {
	return New(edges).InvalidPredecessors(taskID)
}

// DirectPredecessors filters edges for the immediate predecessors of taskID.
func DirectPredecessors(edges []model.Edge, taskID string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, e := range edges {
		if e.Successor != taskID {
			continue
		}
		if _, ok := seen[e.Predecessor]; ok {
			continue
		}
		seen[e.Predecessor] = struct{}{}
		out = append(out, e.Predecessor)
	}
	return out
}

// DirectSuccessors filters edges for the immediate successors of taskID.
func DirectSuccessors(edges []model.Edge, taskID string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, e := range edges {
		if e.Predecessor != taskID {
			continue
		}
		if _, ok := seen[e.Successor]; ok {
			continue
		}
		seen[e.Successor] = struct{}{}
		out = append(out, e.Successor)
	}
	return out
}

// ValidateBatch checks a whole proposed edge set against the existing edges
// and known task IDs before anything is committed. Proposed edges are applied
// in order to a working copy, so an edge that only becomes cyclic together
// with an earlier proposed edge is still caught. The first refusal is
// returned; it unwraps to *EdgeError.
func ValidateBatch(taskIDs []string, existing, proposed []model.Edge) error {
	g := New(existing)
	for _, id := range taskIDs {
		g.AddNode(id)
	}
	for i, e := range proposed {
		if err := g.AddEdge(e.Predecessor, e.Successor); err != nil {
			return fmt.Errorf("edge %d (%s): %w", i, e, err)
		}
	}
	return nil
}
