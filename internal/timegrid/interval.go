package timegrid

import "fmt"

// Interval is a half-open [Start, End) span in minutes from midnight.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewInterval builds the interval occupied by something starting at start
// and lasting duration minutes.
func NewInterval(start, duration int) Interval {
	return Interval{Start: start, End: start + duration}
}

// Duration returns the length of the interval in minutes.
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Overlaps reports whether two half-open intervals intersect. Touching
// intervals (one ends exactly when the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Within reports whether iv lies entirely inside outer.
func (iv Interval) Within(outer Interval) bool {
	return iv.Start >= outer.Start && iv.End <= outer.End
}

// String renders the interval as "HH:MM-HH:MM".
func (iv Interval) String() string {
	return fmt.Sprintf("%s-%s", FormatClock(iv.Start), FormatClock(iv.End))
}
