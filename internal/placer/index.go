package placer

import (
	"sort"

	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// DayIndex groups a day's items by truncated start hour so a slot lookup is
// a single map access. It is rebuilt from scratch whenever the item set
// changes and deliberately has no mutation methods.
type DayIndex struct {
	day   string
	slots map[int][]model.Item
}

// BuildDayIndex indexes the items scheduled on day. Items without a
// derivable start hour are left out rather than reported.
func BuildDayIndex(items []model.Item, day string) DayIndex {
	idx := DayIndex{day: day, slots: make(map[int][]model.Item)}
	for _, it := range items {
		if it.Day != day {
			continue
		}
		hour, ok := timegrid.StartHour(it.Start)
		if !ok {
			continue
		}
		idx.slots[hour] = append(idx.slots[hour], it)
	}
	for _, slot := range idx.slots {
		sort.Slice(slot, func(i, j int) bool {
			a, _ := timegrid.ParseClock(slot[i].Start)
			b, _ := timegrid.ParseClock(slot[j].Start)
			if a != b {
				return a < b
			}
			return slot[i].ID < slot[j].ID
		})
	}
	return idx
}

// Day returns the indexed calendar day.
func (d DayIndex) Day() string {
	return d.day
}

// At returns the items starting within hour H.
func (d DayIndex) At(hour int) []model.Item {
	return d.slots[hour]
}

// Hours returns the occupied hours in ascending order.
func (d DayIndex) Hours() []int {
	hours := make([]int, 0, len(d.slots))
	for h := range d.slots {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

// Len returns the number of indexed items.
func (d DayIndex) Len() int {
	n := 0
	for _, slot := range d.slots {
		n += len(slot)
	}
	return n
}
