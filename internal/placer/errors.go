package placer

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

var (
	ErrConflict    = errors.New("placement overlaps an existing item")
	ErrUnknownItem = errors.New("unknown item")
	ErrFixedItem   = errors.New("fixed items cannot be moved")
	ErrInvalidTime = errors.New("invalid start time")
	ErrOutOfDay    = errors.New("placement runs past the end of the day")

	ErrOutsideWindow = errors.New("placement is outside the working window")
)

// ConflictError is the typed rejection of an overlapping placement.
type ConflictError struct {
	ItemID   string
	Interval timegrid.Interval
	// With is the occupant the requested interval collides with.
	With Occupant
}

func (e *ConflictError) Error() string {
	kind := "item"
	if e.With.Fixed {
		kind = "fixed item"
	}
	return fmt.Sprintf("placement of %s at %s conflicts with %s %s (%s)",
		e.ItemID, e.Interval, kind, e.With.ItemID, e.With.Interval)
}

// Unwrap lets callers match with errors.Is(err, ErrConflict).
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
