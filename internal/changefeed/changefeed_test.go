package changefeed

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Publish(ctx, Event{Type: ItemUpdated})
		}()
	}
	wg.Wait()
	r.Publish(ctx, Event{Type: EdgeCreated, Edge: &model.Edge{Predecessor: "a", Successor: "b"}})

	events := r.Events()
	require.Len(t, events, 11)
	assert.Equal(t, EdgeCreated, events[10].Type)
	assert.Equal(t, "a -> b", events[10].Edge.String())

	types := r.Types()
	assert.Equal(t, EdgeCreated, types[len(types)-1])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		var p Publisher = Nop{}
		p.Publish(context.Background(), Event{Type: ItemDeleted, ItemID: "x"})
	})
}

func TestDialSocketIO(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("invalid url", func(t *testing.T) {
		_, err := DialSocketIO(ctx, SocketIOOptions{URL: "not a url"})
		assert.Error(t, err)
	})

	t.Run("unreachable hub", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := l.Addr().String()
		require.NoError(t, l.Close())

		start := time.Now()
		_, err = DialSocketIO(ctx, SocketIOOptions{URL: "http://" + addr + "/socket.io/", ConnectTimeout: 2 * time.Second})
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("publish while disconnected is dropped", func(t *testing.T) {
		s := &SocketIO{}
		assert.NotPanics(t, func() {
			s.Publish(ctx, Event{Type: ItemUpdated, ItemID: "x"})
		})
	})
}
