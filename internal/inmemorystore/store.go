package inmemorystore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/store"
)

// Store implements the store.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu    sync.RWMutex
	items map[string]model.Item
	deps  map[string]map[string]struct{} // Key: predecessor ID, Value: set of successor IDs
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{
		items: make(map[string]model.Item),
		deps:  make(map[string]map[string]struct{}),
	}
}

// ListItems returns a copy of every item, ordered by ID.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, cloneItem(it))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// GetItem retrieves a single item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return model.Item{}, fmt.Errorf("item '%s': %w", id, store.ErrNotFound)
	}
	return cloneItem(it), nil
}

// CreateItem adds a new item.
func (s *Store) CreateItem(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("item '%s': %w", item.ID, store.ErrItemExists)
	}
	s.items[item.ID] = cloneItem(item)
	return nil
}

// UpdateItem applies a patch to an existing item.
func (s *Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return model.Item{}, fmt.Errorf("item '%s': %w", id, store.ErrNotFound)
	}
	updated := it.Apply(patch)
	s.items[id] = updated
	return cloneItem(updated), nil
}

// DeleteItem removes an item and cascades removal of its edges.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item '%s': %w", id, store.ErrNotFound)
	}
	delete(s.items, id)
	delete(s.deps, id)
	for pred, succs := range s.deps {
		delete(succs, id)
		if len(succs) == 0 {
			delete(s.deps, pred)
		}
	}
	return nil
}

// ListEdges returns every edge, ordered by predecessor then successor.
func (s *Store) ListEdges(ctx context.Context) ([]model.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edges []model.Edge
	for pred, succs := range s.deps {
		for succ := range succs {
			edges = append(edges, model.Edge{Predecessor: pred, Successor: succ})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Predecessor != edges[j].Predecessor {
			return edges[i].Predecessor < edges[j].Predecessor
		}
		return edges[i].Successor < edges[j].Successor
	})
	return edges, nil
}

// CreateEdge creates a dependency link from one item to another.
func (s *Store) CreateEdge(ctx context.Context, pred, succ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createEdgeLocked(pred, succ)
}

func (s *Store) createEdgeLocked(pred, succ string) error {
	if _, exists := s.items[pred]; !exists {
		return fmt.Errorf("dependency source '%s': %w", pred, store.ErrNotFound)
	}
	if _, exists := s.items[succ]; !exists {
		return fmt.Errorf("dependency target '%s': %w", succ, store.ErrNotFound)
	}
	if _, exists := s.deps[pred][succ]; exists {
		return fmt.Errorf("%s -> %s: %w", pred, succ, store.ErrEdgeExists)
	}

	if s.deps[pred] == nil {
		s.deps[pred] = make(map[string]struct{})
	}
	s.deps[pred][succ] = struct{}{}
	return nil
}

// DeleteEdge removes a dependency link.
func (s *Store) DeleteEdge(ctx context.Context, pred, succ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deps[pred][succ]; !exists {
		return fmt.Errorf("%s -> %s: %w", pred, succ, store.ErrNotFound)
	}
	delete(s.deps[pred], succ)
	if len(s.deps[pred]) == 0 {
		delete(s.deps, pred)
	}
	return nil
}

// ApplyBatch writes items then edges under one lock. Every write is checked
// before anything is stored, so a failing batch leaves the store untouched.
func (s *Store) ApplyBatch(ctx context.Context, items []model.Item, edges []model.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, exists := s.items[it.ID]; exists {
			return fmt.Errorf("item '%s': %w", it.ID, store.ErrItemExists)
		}
		if _, dup := staged[it.ID]; dup {
			return fmt.Errorf("item '%s' appears twice in batch: %w", it.ID, store.ErrItemExists)
		}
		staged[it.ID] = struct{}{}
	}
	known := func(id string) bool {
		_, inStore := s.items[id]
		_, inBatch := staged[id]
		return inStore || inBatch
	}
	seen := make(map[model.Edge]struct{}, len(edges))
	for _, e := range edges {
		if !known(e.Predecessor) || !known(e.Successor) {
			return fmt.Errorf("edge %s: %w", e, store.ErrNotFound)
		}
		if _, exists := s.deps[e.Predecessor][e.Successor]; exists {
			return fmt.Errorf("edge %s: %w", e, store.ErrEdgeExists)
		}
		if _, dup := seen[e]; dup {
			return fmt.Errorf("edge %s appears twice in batch: %w", e, store.ErrEdgeExists)
		}
		seen[e] = struct{}{}
	}

	for _, it := range items {
		s.items[it.ID] = cloneItem(it)
	}
	for _, e := range edges {
		if err := s.createEdgeLocked(e.Predecessor, e.Successor); err != nil {
			// Unreachable after the checks above.
			return fmt.Errorf("internal inconsistency applying batch: %w", err)
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func cloneItem(it model.Item) model.Item {
	if it.DurationMinutes != nil {
		d := *it.DurationMinutes
		it.DurationMinutes = &d
	}
	return it
}

var _ store.Store = (*Store)(nil)
