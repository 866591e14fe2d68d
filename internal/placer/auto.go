package placer

import (
	"sort"
	"strings"

	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// AutoResult is the outcome of the first-fit heuristic.
type AutoResult struct {
	Placed   []Placement `json:"placed"`
	Unplaced []string    `json:"unplaced"`
}

// urgencyRank orders due-urgency hints; lower is placed first.
func urgencyRank(hint string) int {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "overdue":
		return 0
	case "today", "due today":
		return 1
	case "tomorrow":
		return 2
	case "this_week", "this week":
		return 3
	case "":
		return 5
	default:
		return 4
	}
}

// AutoPlace fills the pool into the working window deterministically:
// most urgent first, then longest, then by ID; each item lands on the
// earliest free slot boundary that fits. Successful placements are recorded
// on the placer.
func (p *Placer) AutoPlace() AutoResult {
	candidates := p.Pool()
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := urgencyRank(a.DueUrgency), urgencyRank(b.DueUrgency); ra != rb {
			return ra < rb
		}
		da := timegrid.ResolveDuration(nil, a.DurationMinutes)
		db := timegrid.ResolveDuration(nil, b.DurationMinutes)
		if da != db {
			return da > db
		}
		return a.ID < b.ID
	})

	res := AutoResult{Placed: []Placement{}, Unplaced: []string{}}
	for _, it := range candidates {
		if pl, ok := p.firstFit(it); ok {
			res.Placed = append(res.Placed, pl)
			continue
		}
		res.Unplaced = append(res.Unplaced, it.ID)
	}
	return res
}

func (p *Placer) firstFit(it model.Item) (Placement, bool) {
	bounds := p.window.Bounds()
	dur := timegrid.ResolveDuration(nil, it.DurationMinutes)

	start := bounds.Start
	if rem := start % timegrid.SlotMinutes; rem != 0 {
		start += timegrid.SlotMinutes - rem
	}
	for ; start+dur <= bounds.End; start += timegrid.SlotMinutes {
		iv := timegrid.NewInterval(start, dur)
		if _, clash := p.firstOverlap(iv, it.ID); clash {
			continue
		}
		pl, err := p.PlaceAt(it.ID, timegrid.FormatClock(start), &dur)
		if err != nil {
			continue
		}
		return pl, true
	}
	return Placement{}, false
}
