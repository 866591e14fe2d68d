// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug-level logger that writes into
// the returned buffer. Set TASKGRID_TEST_LOGS=true to dump the buffer after
// the test.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() {
		if os.Getenv("TASKGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// Seed writes items and then edges into s, failing the test on any error.
func Seed(t *testing.T, s store.Store, items []model.Item, edges []model.Edge) {
	t.Helper()
	ctx := context.Background()
	for _, it := range items {
		require.NoError(t, s.CreateItem(ctx, it), "seed item %s", it.ID)
	}
	for _, e := range edges {
		require.NoError(t, s.CreateEdge(ctx, e.Predecessor, e.Successor), "seed edge %s", e)
	}
}

// Tasks builds flexible, unscheduled items with the given IDs.
func Tasks(ids ...string) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Item{ID: id, Title: "Task " + id, Kind: model.KindFlexible})
	}
	return out
}

// Edges builds edges from predecessor/successor pairs.
func Edges(pairs ...string) []model.Edge {
	out := make([]model.Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Edge{Predecessor: pairs[i], Successor: pairs[i+1]})
	}
	return out
}
