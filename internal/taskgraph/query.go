package taskgraph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskgrid/internal/dag"
	"github.com/specialistvlad/taskgrid/internal/store"
)

// PickerOption is one row of the predecessor picker for a task.
type PickerOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Disabled is set for the task itself and every transitive successor.
	Disabled bool `json:"disabled"`
	// Selected is set for current direct predecessors.
	Selected bool `json:"selected"`
}

// Picker lists every task as a predecessor candidate for taskID, with the
// candidates that would close a cycle disabled.
func (s *Service) Picker(ctx context.Context, taskID string) ([]PickerOption, error) {
	snap, g, err := s.snapshotGraph(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Item(taskID); !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}

	invalid := g.InvalidPredecessors(taskID)
	selected := make(dag.Set)
	for _, id := range g.DirectPredecessors(taskID) {
		selected[id] = struct{}{}
	}

	out := make([]PickerOption, 0, len(snap.Items))
	for _, it := range snap.Items {
		out = append(out, PickerOption{
			ID:       it.ID,
			Title:    it.Title,
			Disabled: invalid.Has(it.ID),
			Selected: selected.Has(it.ID),
		})
	}
	return out, nil
}

// Chain describes a task's position in the dependency graph.
type Chain struct {
	TaskID             string   `json:"task_id"`
	DirectPredecessors []string `json:"direct_predecessors"`
	DirectSuccessors   []string `json:"direct_successors"`
	AllPredecessors    []string `json:"all_predecessors"`
	AllSuccessors      []string `json:"all_successors"`
}

// Chain returns the direct and transitive neighbours of taskID.
func (s *Service) Chain(ctx context.Context, taskID string) (Chain, error) {
	snap, g, err := s.snapshotGraph(ctx)
	if err != nil {
		return Chain{}, err
	}
	if _, ok := snap.Item(taskID); !ok {
		return Chain{}, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	return Chain{
		TaskID:             taskID,
		DirectPredecessors: g.DirectPredecessors(taskID),
		DirectSuccessors:   g.DirectSuccessors(taskID),
		AllPredecessors:    g.AllPredecessors(taskID).Sorted(),
		AllSuccessors:      g.AllSuccessors(taskID).Sorted(),
	}, nil
}
