package timegrid

import "fmt"

const (
	// MinDuration is the shortest duration any placement may have.
	MinDuration = 15
	// DefaultDuration is used for manual placement when no estimate exists.
	DefaultDuration = 30
	// SlotMinutes is the granularity used by the first-fit heuristic.
	SlotMinutes = 15
)

// Window is a single day's working bounds in whole hours.
type Window struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// DefaultWindow is 06:00-22:00.
var DefaultWindow = Window{StartHour: 6, EndHour: 22}

// Validate checks that the window is a non-empty span inside one day.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("invalid working window %02d:00-%02d:00", w.StartHour, w.EndHour)
	}
	return nil
}

// Bounds returns the window as a minute interval.
func (w Window) Bounds() Interval {
	return Interval{Start: w.StartHour * 60, End: w.EndHour * 60}
}

// Contains reports whether iv lies inside the window.
func (w Window) Contains(iv Interval) bool {
	return iv.Within(w.Bounds())
}

// String renders the window as "HH:MM-HH:MM".
func (w Window) String() string {
	return w.Bounds().String()
}

// ClampDuration limits durations to [MinDuration, MinutesPerDay]. Nothing
// longer than a day can be placed, and the bound keeps start+duration from
// overflowing.
func ClampDuration(minutes int) int {
	switch {
	case minutes < MinDuration:
		return MinDuration
	case minutes > MinutesPerDay:
		return MinutesPerDay
	default:
		return minutes
	}
}

// ResolveDuration picks the explicit override, then the item's estimate, then
// DefaultDuration, and clamps the result.
func ResolveDuration(override, estimate *int) int {
	switch {
	case override != nil:
		return ClampDuration(*override)
	case estimate != nil:
		return ClampDuration(*estimate)
	default:
		return DefaultDuration
	}
}
