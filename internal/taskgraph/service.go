package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/taskgrid/internal/changefeed"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/dag"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// Service validates and applies dependency mutations.
type Service struct {
	store  store.Store
	feed   changefeed.Publisher
	window timegrid.Window
	newID  func() string
	now    func() time.Time

	mu sync.Mutex
}

// New creates a Service. A nil feed publishes nothing. window bounds the
// scheduled tasks an import may carry.
func New(s store.Store, feed changefeed.Publisher, window timegrid.Window) *Service {
	if feed == nil {
		feed = changefeed.Nop{}
	}
	return &Service{store: s, feed: feed, window: window, newID: newUUID, now: time.Now}
}

// snapshotGraph loads the current edges into a working graph that also
// knows every item, so unknown endpoints can be told apart from isolated ones.
func (s *Service) snapshotGraph(ctx context.Context) (store.Snapshot, *dag.Graph, error) {
	snap, err := store.Load(ctx, s.store)
	if err != nil {
		return store.Snapshot{}, nil, fmt.Errorf("load snapshot: %w", err)
	}
	g := dag.New(snap.Edges)
	for _, id := range snap.IDs() {
		g.AddNode(id)
	}
	return snap, g, nil
}

// CheckDependency reports whether pred -> succ may be added, without
// changing anything. A nil error means the edge is acceptable; otherwise the
// error unwraps to *dag.EdgeError.
func (s *Service) CheckDependency(ctx context.Context, pred, succ string) error {
	_, g, err := s.snapshotGraph(ctx)
	if err != nil {
		return err
	}
	return g.AddEdge(pred, succ)
}

// AddDependency persists pred -> succ after validation.
func (s *Service) AddDependency(ctx context.Context, pred, succ string) error {
	logger := ctxlog.FromContext(ctx).With("component", "taskgraph", "predecessor", pred, "successor", succ)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.CheckDependency(ctx, pred, succ); err != nil {
		logger.Debug("Dependency refused.", "error", err)
		return err
	}

	if err := s.store.CreateEdge(ctx, pred, succ); err != nil {
		switch {
		case errors.Is(err, store.ErrEdgeExists):
			return &dag.EdgeError{Reason: dag.ReasonDuplicate, Predecessor: pred, Successor: succ}
		case errors.Is(err, store.ErrNotFound):
			return &dag.EdgeError{Reason: dag.ReasonUnknownTask, Predecessor: pred, Successor: succ}
		}
		return fmt.Errorf("create dependency %s -> %s: %w", pred, succ, err)
	}

	logger.Info("Dependency added.")
	edge := model.Edge{Predecessor: pred, Successor: succ}
	s.feed.Publish(ctx, changefeed.Event{Type: changefeed.EdgeCreated, Edge: &edge, At: s.now().UTC()})
	return nil
}

// RemoveDependency deletes pred -> succ. Removing a missing edge returns
// store.ErrNotFound.
func (s *Service) RemoveDependency(ctx context.Context, pred, succ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteEdge(ctx, pred, succ); err != nil {
		return fmt.Errorf("remove dependency %s -> %s: %w", pred, succ, err)
	}

	ctxlog.FromContext(ctx).Info("Dependency removed.", "component", "taskgraph", "predecessor", pred, "successor", succ)
	edge := model.Edge{Predecessor: pred, Successor: succ}
	s.feed.Publish(ctx, changefeed.Event{Type: changefeed.EdgeDeleted, Edge: &edge, At: s.now().UTC()})
	return nil
}

// DeleteTask removes a task together with every edge referencing it.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	ctxlog.FromContext(ctx).Info("Task deleted.", "component", "taskgraph", "task", id)
	s.feed.Publish(ctx, changefeed.Event{Type: changefeed.ItemDeleted, ItemID: id, At: s.now().UTC()})
	return nil
}
