package placer

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// Placement assigns a flexible item to a start time on a day.
type Placement struct {
	ItemID          string `json:"item_id"`
	Day             string `json:"day"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Interval returns the occupied [start, start+duration) span.
func (p Placement) Interval() timegrid.Interval {
	start, _ := timegrid.ParseClock(p.Start)
	return timegrid.NewInterval(start, p.DurationMinutes)
}

// Patch converts the placement into the update written back to the item.
func (p Placement) Patch() model.ItemPatch {
	day, start, dur := p.Day, p.Start, p.DurationMinutes
	return model.ItemPatch{Day: &day, Start: &start, DurationMinutes: &dur}
}

// Occupant is anything holding an interval on the day.
type Occupant struct {
	ItemID   string            `json:"item_id"`
	Fixed    bool              `json:"fixed"`
	Interval timegrid.Interval `json:"interval"`
}

// Placer holds one day's commitments and the pool of items to place.
type Placer struct {
	day    string
	window timegrid.Window

	flexible map[string]model.Item
	fixed    []Occupant
	placed   map[string]Placement
	pool     map[string]model.Item
	skipped  []string
}

// New builds a Placer from an item snapshot. Items belonging to other days
// are ignored except that flexible ones remain placeable (moving them onto
// this day). Items whose start cannot be parsed do not occupy any interval.
func New(day string, items []model.Item, window timegrid.Window) *Placer {
	p := &Placer{
		day:      day,
		window:   window,
		flexible: make(map[string]model.Item),
		placed:   make(map[string]Placement),
		pool:     make(map[string]model.Item),
	}

	for _, it := range items {
		if it.IsFixed() {
			if it.Day != day {
				continue
			}
			start, err := timegrid.ParseClock(it.Start)
			if err != nil {
				p.skipped = append(p.skipped, it.ID)
				continue
			}
			dur := timegrid.ResolveDuration(nil, it.DurationMinutes)
			p.fixed = append(p.fixed, Occupant{ItemID: it.ID, Fixed: true, Interval: timegrid.NewInterval(start, dur)})
			continue
		}

		p.flexible[it.ID] = it
		switch {
		case it.Start == "":
			p.pool[it.ID] = it
		case it.Day == day:
			start, err := timegrid.ParseClock(it.Start)
			if err != nil {
				p.skipped = append(p.skipped, it.ID)
				p.pool[it.ID] = it
				continue
			}
			p.placed[it.ID] = Placement{
				ItemID:          it.ID,
				Day:             day,
				Start:           timegrid.FormatClock(start),
				DurationMinutes: timegrid.ResolveDuration(nil, it.DurationMinutes),
			}
		}
	}
	sort.Slice(p.fixed, func(i, j int) bool { return lessOccupant(p.fixed[i], p.fixed[j]) })
	sort.Strings(p.skipped)
	return p
}

// Day returns the calendar day this placer works on.
func (p *Placer) Day() string {
	return p.day
}

// Window returns the working window used for automatic placement.
func (p *Placer) Window() timegrid.Window {
	return p.window
}

// Skipped lists items on the day whose start time could not be parsed.
func (p *Placer) Skipped() []string {
	return append([]string(nil), p.skipped...)
}

// PlaceAt places itemID at start. The duration is the override when given,
// else the item's estimate, else the default, clamped to one day at most.
// The placement must end by midnight and lie inside the working window. A
// placement overlapping any fixed item or any other placed item is refused
// with *ConflictError and nothing changes.
func (p *Placer) PlaceAt(itemID, start string, durationOverride *int) (Placement, error) {
	item, ok := p.flexible[itemID]
	if !ok {
		for _, f := range p.fixed {
			if f.ItemID == itemID {
				return Placement{}, fmt.Errorf("%s: %w", itemID, ErrFixedItem)
			}
		}
		return Placement{}, fmt.Errorf("%s: %w", itemID, ErrUnknownItem)
	}

	startMin, err := timegrid.ParseClock(start)
	if err != nil {
		return Placement{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}

	iv := timegrid.NewInterval(startMin, timegrid.ResolveDuration(durationOverride, item.DurationMinutes))
	if iv.End > timegrid.MinutesPerDay {
		return Placement{}, fmt.Errorf("%s at %s: %w", itemID, iv, ErrOutOfDay)
	}
	if !p.window.Contains(iv) {
		return Placement{}, fmt.Errorf("%s at %s not within %s: %w", itemID, iv, p.window, ErrOutsideWindow)
	}
	if with, clash := p.firstOverlap(iv, itemID); clash {
		return Placement{}, &ConflictError{ItemID: itemID, Interval: iv, With: with}
	}

	pl := Placement{
		ItemID:          itemID,
		Day:             p.day,
		Start:           timegrid.FormatClock(iv.Start),
		DurationMinutes: iv.Duration(),
	}
	p.placed[itemID] = pl
	delete(p.pool, itemID)
	return pl, nil
}

// Unplace returns a flexible item to the unscheduled pool. It always succeeds.
func (p *Placer) Unplace(itemID string) {
	delete(p.placed, itemID)
	if it, ok := p.flexible[itemID]; ok {
		it.Start, it.Day = "", ""
		p.pool[itemID] = it
	}
}

// Placements returns the flexible placements on the day, ordered by start.
func (p *Placer) Placements() []Placement {
	out := make([]Placement, 0, len(p.placed))
	for _, pl := range p.placed {
		out = append(out, pl)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Interval(), out[j].Interval()
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// Occupied returns every fixed and placed interval, ordered by start.
func (p *Placer) Occupied() []Occupant {
	out := append([]Occupant(nil), p.fixed...)
	for _, pl := range p.placed {
		out = append(out, Occupant{ItemID: pl.ItemID, Interval: pl.Interval()})
	}
	sort.Slice(out, func(i, j int) bool { return lessOccupant(out[i], out[j]) })
	return out
}

// Pool returns the unscheduled flexible items, ordered by ID.
func (p *Placer) Pool() []model.Item {
	out := make([]model.Item, 0, len(p.pool))
	for _, it := range p.pool {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// firstOverlap finds the earliest occupant colliding with iv, ignoring the
// item's own current placement.
func (p *Placer) firstOverlap(iv timegrid.Interval, ignoreID string) (Occupant, bool) {
	for _, occ := range p.Occupied() {
		if occ.ItemID == ignoreID && !occ.Fixed {
			continue
		}
		if occ.Interval.Overlaps(iv) {
			return occ, true
		}
	}
	return Occupant{}, false
}

func lessOccupant(a, b Occupant) bool {
	if a.Interval.Start != b.Interval.Start {
		return a.Interval.Start < b.Interval.Start
	}
	return a.ItemID < b.ItemID
}
