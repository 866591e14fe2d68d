package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "taskgrid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTemp(t)
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "taskgrid.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateItem(ctx, model.Item{ID: "a", Kind: model.KindFlexible}))
	require.NoError(t, s.CreateItem(ctx, model.Item{ID: "b", Kind: model.KindFlexible}))
	require.NoError(t, s.CreateEdge(ctx, "a", "b"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{{Predecessor: "a", Successor: "b"}}, edges)
}

func TestNullDurationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.CreateItem(ctx, model.Item{ID: "a", Kind: model.KindFlexible}))
	got, err := s.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got.DurationMinutes, "absent estimate stays absent")
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	boom := errors.New("boom")

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO items (id, title, kind) VALUES ('t1', 'T', 'flexible')")
		require.NoError(t, err)
		return boom
	})
	assert.Equal(t, boom, err, "a clean rollback adds nothing to the error")

	_, err = s.GetItem(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		require.NoError(t, tx.Rollback())
		return boom
	})
	assert.Equal(t, boom, err, "an already finished transaction is not reported as a rollback failure")
}
