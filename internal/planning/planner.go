package planning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/taskgrid/internal/changefeed"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/placer"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

var (
	ErrInvalidDay = errors.New("invalid day")
	// ErrNotInPool is returned by Apply when an item was scheduled by other
	// means after the preview was built.
	ErrNotInPool = errors.New("item is no longer unscheduled")
)

// Source names where a preview came from.
type Source string

const (
	SourceSuggester Source = "suggester"
	SourceAuto      Source = "auto"
)

// Preview is a validated, not yet applied plan for one day.
type Preview struct {
	Day       string             `json:"day"`
	Source    Source             `json:"source"`
	Accepted  []placer.Placement `json:"accepted"`
	Rejected  []placer.Rejection `json:"rejected"`
	Unplaced  []string           `json:"unplaced"`
	Reasoning string             `json:"reasoning,omitempty"`
}

// FailedPlacement is the placement that stopped an Apply.
type FailedPlacement struct {
	Placement placer.Placement `json:"placement"`
	Reason    string           `json:"reason"`
	Err       error            `json:"-"`
}

// ApplyReport summarizes a sequential apply.
type ApplyReport struct {
	Applied []placer.Placement `json:"applied"`
	Failed  *FailedPlacement   `json:"failed,omitempty"`
	Skipped []placer.Placement `json:"skipped"`
}

// Planner performs placements against the store.
type Planner struct {
	store  store.Store
	window timegrid.Window
	feed   changefeed.Publisher
	now    func() time.Time

	// mu serializes writes so two placements cannot be validated against
	// the same snapshot.
	mu sync.Mutex
}

// NewPlanner creates a Planner. A nil feed publishes nothing.
func NewPlanner(s store.Store, window timegrid.Window, feed changefeed.Publisher) *Planner {
	if feed == nil {
		feed = changefeed.Nop{}
	}
	return &Planner{store: s, window: window, feed: feed, now: time.Now}
}

// Window returns the working window used for suggestions and auto placement.
func (p *Planner) Window() timegrid.Window {
	return p.window
}

func checkDay(day string) error {
	if _, err := timegrid.ParseDay(day); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}
	return nil
}

// Snapshot returns the current items.
func (p *Planner) Snapshot(ctx context.Context) ([]model.Item, error) {
	items, err := p.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (p *Planner) placerFor(ctx context.Context, day string) (*placer.Placer, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}
	items, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	pl := placer.New(day, items, p.window)
	if skipped := pl.Skipped(); len(skipped) > 0 {
		ctxlog.FromContext(ctx).Warn("Items with unparseable start times ignored.", "component", "planning", "day", day, "items", skipped)
	}
	return pl, nil
}

// PlaceAt validates and persists a single manual placement.
func (p *Planner) PlaceAt(ctx context.Context, day, itemID, start string, duration *int) (placer.Placement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.placeLocked(ctx, day, itemID, start, duration, false)
}

func (p *Planner) placeLocked(ctx context.Context, day, itemID, start string, duration *int, poolOnly bool) (placer.Placement, error) {
	logger := ctxlog.FromContext(ctx).With("component", "planning", "day", day, "item", itemID)

	pl, err := p.placerFor(ctx, day)
	if err != nil {
		return placer.Placement{}, err
	}
	if poolOnly && !inPool(pl, itemID) {
		return placer.Placement{}, fmt.Errorf("%s: %w", itemID, ErrNotInPool)
	}

	placement, err := pl.PlaceAt(itemID, start, duration)
	if err != nil {
		logger.Debug("Placement refused.", "start", start, "error", err)
		return placer.Placement{}, err
	}

	if _, err := p.store.UpdateItem(ctx, itemID, placement.Patch()); err != nil {
		return placer.Placement{}, fmt.Errorf("persist placement of %s: %w", itemID, err)
	}

	logger.Info("Item placed.", "start", placement.Start, "duration", placement.DurationMinutes)
	p.feed.Publish(ctx, changefeed.Event{Type: changefeed.ItemUpdated, ItemID: itemID, At: p.now().UTC()})
	return placement, nil
}

func inPool(pl *placer.Placer, itemID string) bool {
	for _, it := range pl.Pool() {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// Unplace returns a flexible item to the unscheduled pool.
func (p *Planner) Unplace(ctx context.Context, itemID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	it, err := p.store.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("unplace %s: %w", itemID, err)
	}
	if it.IsFixed() {
		return fmt.Errorf("%s: %w", itemID, placer.ErrFixedItem)
	}
	if it.Start == "" {
		return nil
	}
	if _, err := p.store.UpdateItem(ctx, itemID, model.ItemPatch{Clear: true}); err != nil {
		return fmt.Errorf("unplace %s: %w", itemID, err)
	}

	ctxlog.FromContext(ctx).Info("Item unplaced.", "component", "planning", "item", itemID)
	p.feed.Publish(ctx, changefeed.Event{Type: changefeed.ItemUpdated, ItemID: itemID, At: p.now().UTC()})
	return nil
}

// DayIndex builds the hour index of a day from a fresh snapshot.
func (p *Planner) DayIndex(ctx context.Context, day string) (placer.DayIndex, error) {
	if err := checkDay(day); err != nil {
		return placer.DayIndex{}, err
	}
	items, err := p.Snapshot(ctx)
	if err != nil {
		return placer.DayIndex{}, err
	}
	return placer.BuildDayIndex(items, day), nil
}

// AutoPlan previews the first-fit heuristic for a day. Nothing is persisted.
func (p *Planner) AutoPlan(ctx context.Context, day string) (Preview, error) {
	pl, err := p.placerFor(ctx, day)
	if err != nil {
		return Preview{}, err
	}
	res := pl.AutoPlace()
	ctxlog.FromContext(ctx).Debug("Auto plan computed.", "component", "planning", "day", day, "placed", len(res.Placed), "unplaced", len(res.Unplaced))
	return Preview{
		Day:      day,
		Source:   SourceAuto,
		Accepted: res.Placed,
		Rejected: []placer.Rejection{},
		Unplaced: res.Unplaced,
	}, nil
}

// Validate re-checks suggester entries against a fresh snapshot of the day.
func (p *Planner) Validate(ctx context.Context, day string, entries []placer.Suggestion) (Preview, error) {
	pl, err := p.placerFor(ctx, day)
	if err != nil {
		return Preview{}, err
	}
	accepted, rejected := pl.ValidateSuggestions(entries)
	logger := ctxlog.FromContext(ctx).With("component", "planning", "day", day)
	for _, r := range rejected {
		logger.Warn("Suggestion entry dropped.", "item", r.ItemID, "start", r.Start, "reason", r.Reason, "detail", r.Detail)
	}
	if rejected == nil {
		rejected = []placer.Rejection{}
	}
	return Preview{
		Day:      day,
		Source:   SourceSuggester,
		Accepted: accepted,
		Rejected: rejected,
		Unplaced: []string{},
	}, nil
}

// Apply writes placements one at a time, each re-validated against a fresh
// snapshot. It stops at the first failure; the remaining placements are
// reported as skipped and nothing already applied is rolled back.
func (p *Planner) Apply(ctx context.Context, day string, placements []placer.Placement) ApplyReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := ApplyReport{Applied: []placer.Placement{}, Skipped: []placer.Placement{}}
	for i, want := range placements {
		dur := want.DurationMinutes
		got, err := p.placeLocked(ctx, day, want.ItemID, want.Start, &dur, true)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Apply stopped.", "component", "planning", "day", day, "item", want.ItemID, "error", err)
			report.Failed = &FailedPlacement{Placement: want, Reason: err.Error(), Err: err}
			report.Skipped = append(report.Skipped, placements[i+1:]...)
			return report
		}
		report.Applied = append(report.Applied, got)
	}
	return report
}
