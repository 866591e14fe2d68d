package placer

import (
	"fmt"

	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// Suggestion is one untrusted entry of an externally proposed plan.
type Suggestion struct {
	ItemID          string
	Start           string
	DurationMinutes *int
}

// RejectReason explains why a suggestion was dropped.
type RejectReason string

const (
	RejectUnknownItem   RejectReason = "unknown item"
	RejectDuplicate     RejectReason = "duplicate item"
	RejectInvalidTime   RejectReason = "invalid start time"
	RejectOutsideWindow RejectReason = "outside working window"
	RejectConflict      RejectReason = "conflict"
)

// Rejection records a dropped suggestion.
type Rejection struct {
	ItemID string       `json:"item_id"`
	Start  string       `json:"start"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

func (r Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("suggestion for %s at %s dropped: %s", r.ItemID, r.Start, r.Reason)
	}
	return fmt.Sprintf("suggestion for %s at %s dropped: %s (%s)", r.ItemID, r.Start, r.Reason, r.Detail)
}

// ValidateSuggestions re-validates an external plan entry by entry, in the
// order received. Entries naming items outside pool, repeating an accepted
// item, carrying a malformed start, leaving the window, or overlapping an
// occupant or an earlier accepted entry are dropped. Durations default to the
// item's estimate and are clamped to [15m, 24h].
func ValidateSuggestions(day string, entries []Suggestion, pool []model.Item, window timegrid.Window, occupied []Occupant) ([]Placement, []Rejection) {
	known := make(map[string]model.Item, len(pool))
	for _, it := range pool {
		known[it.ID] = it
	}

	taken := append([]Occupant(nil), occupied...)
	accepted := make([]Placement, 0, len(entries))
	acceptedIDs := make(map[string]struct{}, len(entries))
	var rejected []Rejection

	for _, e := range entries {
		reject := func(reason RejectReason, detail string) {
			rejected = append(rejected, Rejection{ItemID: e.ItemID, Start: e.Start, Reason: reason, Detail: detail})
		}

		item, ok := known[e.ItemID]
		if !ok {
			reject(RejectUnknownItem, "")
			continue
		}
		if _, dup := acceptedIDs[e.ItemID]; dup {
			reject(RejectDuplicate, "")
			continue
		}
		start, err := timegrid.ParseClock(e.Start)
		if err != nil {
			reject(RejectInvalidTime, err.Error())
			continue
		}
		iv := timegrid.NewInterval(start, timegrid.ResolveDuration(e.DurationMinutes, item.DurationMinutes))
		if !window.Contains(iv) {
			reject(RejectOutsideWindow, fmt.Sprintf("%s not within %s", iv, window))
			continue
		}
		if with, clash := overlapping(taken, iv); clash {
			reject(RejectConflict, fmt.Sprintf("overlaps %s (%s)", with.ItemID, with.Interval))
			continue
		}

		taken = append(taken, Occupant{ItemID: e.ItemID, Interval: iv})
		acceptedIDs[e.ItemID] = struct{}{}
		accepted = append(accepted, Placement{
			ItemID:          e.ItemID,
			Day:             day,
			Start:           timegrid.FormatClock(iv.Start),
			DurationMinutes: iv.Duration(),
		})
	}
	return accepted, rejected
}

// ValidateSuggestions checks entries against this day's pool, window and
// occupied intervals. The placer itself is not modified.
func (p *Placer) ValidateSuggestions(entries []Suggestion) ([]Placement, []Rejection) {
	return ValidateSuggestions(p.day, entries, p.Pool(), p.window, p.Occupied())
}

func overlapping(occupied []Occupant, iv timegrid.Interval) (Occupant, bool) {
	for _, occ := range occupied {
		if occ.Interval.Overlaps(iv) {
			return occ, true
		}
	}
	return Occupant{}, false
}
