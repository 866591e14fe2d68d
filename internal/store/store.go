// Package store defines the interface of the persistence collaborator that
// owns the authoritative copy of items and dependency edges.
//
// # Why an explicit store boundary
//
// The planning core never talks to a database. It receives immutable
// snapshots (ListItems, ListEdges) per call and hands committed decisions
// back through the narrow mutation methods below. Which transport keeps the
// snapshot fresh (polling, realtime subscription, a CLI invocation) is the
// caller's concern.
//
// # Implementations
//
// See internal/inmemorystore for the map-backed reference implementation and
// internal/sqlitestore for the SQLite-backed one.
package store

import (
	"context"
	"errors"

	"github.com/specialistvlad/taskgrid/internal/model"
)

var (
	// ErrNotFound is returned when an item or edge does not exist.
	ErrNotFound = errors.New("not found")
	// ErrItemExists is returned when creating an item whose ID is taken.
	ErrItemExists = errors.New("item already exists")
	// ErrEdgeExists is returned when creating an edge that is already stored.
	ErrEdgeExists = errors.New("edge already exists")
)

// Store is the persistence collaborator contract.
//
// Implementations MUST be safe for concurrent use. Returned slices are
// snapshots owned by the caller.
type Store interface {
	// ListItems returns every item, ordered by ID.
	ListItems(ctx context.Context) ([]model.Item, error)

	// GetItem returns a single item or ErrNotFound.
	GetItem(ctx context.Context, id string) (model.Item, error)

	// CreateItem stores a new item. It returns ErrItemExists on ID collision.
	CreateItem(ctx context.Context, item model.Item) error

	// UpdateItem applies a placement patch and returns the updated item.
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error)

	// DeleteItem removes an item and every edge referencing it. Other items
	// are never deleted.
	DeleteItem(ctx context.Context, id string) error

	// ListEdges returns every dependency edge, ordered by predecessor then successor.
	ListEdges(ctx context.Context) ([]model.Edge, error)

	// CreateEdge stores pred -> succ. It does NOT check for cycles; callers
	// must gate every call behind dag.WouldCreateCycle. Both endpoints must
	// exist (ErrNotFound otherwise) and the edge must be new (ErrEdgeExists).
	CreateEdge(ctx context.Context, pred, succ string) error

	// DeleteEdge removes pred -> succ, or returns ErrNotFound.
	DeleteEdge(ctx context.Context, pred, succ string) error

	// ApplyBatch stores items and edges atomically: either everything is
	// written or nothing is.
	ApplyBatch(ctx context.Context, items []model.Item, edges []model.Edge) error

	// Close releases any resources held by the store.
	Close() error
}

// Snapshot is a consistent-enough read of both collections.
type Snapshot struct {
	Items []model.Item
	Edges []model.Edge
}

// Load reads items and edges from s.
func Load(ctx context.Context, s Store) (Snapshot, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Items: items, Edges: edges}, nil
}

// IDs returns the IDs of every item in the snapshot.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.Items))
	for i, it := range s.Items {
		ids[i] = it.ID
	}
	return ids
}

// Item looks up an item by ID.
func (s Snapshot) Item(id string) (model.Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}
