// Package changefeed notifies other views that tasks or dependencies changed.
//
// Publishing is fire-and-forget: a failure to notify is logged and never
// turns a committed mutation into an error.
package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/taskgrid/internal/model"
)

// EventType names a change notification.
type EventType string

const (
	EdgeCreated   EventType = "edge_created"
	EdgeDeleted   EventType = "edge_deleted"
	ItemUpdated   EventType = "item_updated"
	ItemDeleted   EventType = "item_deleted"
	ItemsImported EventType = "items_imported"
)

// Event is the payload emitted for one committed mutation.
type Event struct {
	Type   EventType   `json:"type"`
	ItemID string      `json:"item_id,omitempty"`
	Edge   *model.Edge `json:"edge,omitempty"`
	// ItemIDs lists every item touched by a batch.
	ItemIDs []string  `json:"item_ids,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
