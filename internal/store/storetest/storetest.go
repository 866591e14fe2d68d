// Package storetest is a conformance suite every store.Store implementation
// runs from its own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

func seed(t *testing.T, s store.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.CreateItem(context.Background(), model.Item{ID: id, Title: "task " + id, Kind: model.KindFlexible}))
	}
}

// Run executes the conformance suite.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create and get items", func(t *testing.T) {
		s := newStore(t)
		item := model.Item{
			ID:              "a",
			Title:           "Write report",
			Description:     "quarterly",
			Kind:            model.KindFixed,
			Day:             "2025-03-04",
			Start:           "09:00",
			DurationMinutes: model.Minutes(60),
			DueUrgency:      "today",
		}
		require.NoError(t, s.CreateItem(ctx, item))
		assert.ErrorIs(t, s.CreateItem(ctx, item), store.ErrItemExists)

		got, err := s.GetItem(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(item, got))

		_, err = s.GetItem(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list items is ordered and detached", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "c", "a", "b")
		require.NoError(t, s.CreateItem(ctx, model.Item{ID: "d", Kind: model.KindFlexible, DurationMinutes: model.Minutes(20)}))

		items, err := s.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 4)
		assert.Equal(t, []string{"a", "b", "c", "d"}, []string{items[0].ID, items[1].ID, items[2].ID, items[3].ID})

		*items[3].DurationMinutes = 999
		again, err := s.GetItem(ctx, "d")
		require.NoError(t, err)
		assert.Equal(t, 20, *again.DurationMinutes, "snapshots must not alias stored state")
	})

	t.Run("update item", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "a")
		day, start := "2025-03-04", "10:00"

		updated, err := s.UpdateItem(ctx, "a", model.ItemPatch{Day: &day, Start: &start, DurationMinutes: model.Minutes(45)})
		require.NoError(t, err)
		assert.Equal(t, "10:00", updated.Start)
		assert.Equal(t, 45, *updated.DurationMinutes)

		got, err := s.GetItem(ctx, "a")
		require.NoError(t, err)
		assert.True(t, got.IsScheduled(day))

		cleared, err := s.UpdateItem(ctx, "a", model.ItemPatch{Clear: true})
		require.NoError(t, err)
		assert.False(t, cleared.IsScheduled(day))

		_, err = s.UpdateItem(ctx, "missing", model.ItemPatch{Clear: true})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("edges", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "a", "b", "c")

		require.NoError(t, s.CreateEdge(ctx, "b", "c"))
		require.NoError(t, s.CreateEdge(ctx, "a", "b"))
		assert.ErrorIs(t, s.CreateEdge(ctx, "a", "b"), store.ErrEdgeExists)
		assert.ErrorIs(t, s.CreateEdge(ctx, "a", "zzz"), store.ErrNotFound)
		assert.ErrorIs(t, s.CreateEdge(ctx, "zzz", "a"), store.ErrNotFound)

		edges, err := s.ListEdges(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff([]model.Edge{{Predecessor: "a", Successor: "b"}, {Predecessor: "b", Successor: "c"}}, edges))

		require.NoError(t, s.DeleteEdge(ctx, "a", "b"))
		assert.ErrorIs(t, s.DeleteEdge(ctx, "a", "b"), store.ErrNotFound)

		edges, err = s.ListEdges(ctx)
		require.NoError(t, err)
		assert.Len(t, edges, 1)
	})

	t.Run("delete item cascades edges only", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "a", "b", "c", "d")
		require.NoError(t, s.CreateEdge(ctx, "a", "b"))
		require.NoError(t, s.CreateEdge(ctx, "b", "c"))
		require.NoError(t, s.CreateEdge(ctx, "c", "d"))

		require.NoError(t, s.DeleteItem(ctx, "b"))
		assert.ErrorIs(t, s.DeleteItem(ctx, "b"), store.ErrNotFound)

		edges, err := s.ListEdges(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff([]model.Edge{{Predecessor: "c", Successor: "d"}}, edges))

		items, err := s.ListItems(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 3, "cascading removal never deletes neighbours")
	})

	t.Run("apply batch is all or nothing", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "a")

		bad := []model.Edge{{Predecessor: "a", Successor: "x"}, {Predecessor: "x", Successor: "ghost"}}
		err := s.ApplyBatch(ctx, []model.Item{{ID: "x", Kind: model.KindFlexible}}, bad)
		require.Error(t, err)

		items, err := s.ListItems(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1, "failed batch must not leave items behind")
		edges, err := s.ListEdges(ctx)
		require.NoError(t, err)
		assert.Empty(t, edges)

		good := []model.Edge{{Predecessor: "a", Successor: "x"}, {Predecessor: "x", Successor: "y"}}
		require.NoError(t, s.ApplyBatch(ctx, []model.Item{{ID: "x", Kind: model.KindFlexible}, {ID: "y", Kind: model.KindFlexible}}, good))

		items, err = s.ListItems(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		edges, err = s.ListEdges(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(good, edges))

		assert.ErrorIs(t, s.ApplyBatch(ctx, []model.Item{{ID: "a"}}, nil), store.ErrItemExists)
	})

	t.Run("snapshot helpers", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "a", "b")
		require.NoError(t, s.CreateEdge(ctx, "a", "b"))

		snap, err := store.Load(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, snap.IDs())
		assert.Len(t, snap.Edges, 1)
		it, ok := snap.Item("b")
		assert.True(t, ok)
		assert.Equal(t, "task b", it.Title)
		_, ok = snap.Item("zzz")
		assert.False(t, ok)
	})
}
