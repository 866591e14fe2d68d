// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
	"strings"
)

// ItemKind distinguishes immutable events from placeable tasks.
type ItemKind string

const (
	KindFixed    ItemKind = "fixed"
	KindFlexible ItemKind = "flexible"
)

// ParseItemKind normalizes a user supplied kind. An empty string means flexible.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flexible", "task":
		return KindFlexible, nil
	case "fixed", "event":
		return KindFixed, nil
	default:
		return "", fmt.Errorf("invalid item kind %q: must be 'fixed' or 'flexible'", s)
	}
}

// Item is a schedulable record as mirrored from the persistence collaborator.
type Item struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        ItemKind `json:"kind" yaml:"kind"`

	// Day is the calendar day (YYYY-MM-DD) the item is scheduled on.
	Day string `json:"day,omitempty" yaml:"day,omitempty"`
	// Start is the wall-clock start (HH:MM). Empty means unscheduled.
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	// DurationMinutes is nil when the item still needs an estimate.
	DurationMinutes *int `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	// DueUrgency is a free-form hint ("today", "overdue", ...) used only to
	// order placement candidates.
	DueUrgency string `json:"due_urgency,omitempty" yaml:"due_urgency,omitempty"`
}

// IsFixed reports whether the item is an immutable event.
func (i Item) IsFixed() bool {
	return i.Kind == KindFixed
}

// IsScheduled reports whether the item has a start on the given day.
func (i Item) IsScheduled(day string) bool {
	return i.Day == day && i.Start != ""
}

// Apply returns a copy of the item with the patch applied.
func (i Item) Apply(p ItemPatch) Item {
	if p.Clear {
		i.Start = ""
		i.Day = ""
		return i
	}
	if p.Day != nil {
		i.Day = *p.Day
	}
	if p.Start != nil {
		i.Start = *p.Start
	}
	if p.DurationMinutes != nil {
		d := *p.DurationMinutes
		i.DurationMinutes = &d
	}
	return i
}

// ItemPatch is a partial update of an item's placement fields.
type ItemPatch struct {
	Day             *string `json:"day,omitempty"`
	Start           *string `json:"start,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	// Clear returns the item to the unscheduled pool. It wins over the other fields.
	Clear bool `json:"clear,omitempty"`
}

// Minutes is a small helper for building *int durations in literals.
func Minutes(m int) *int {
	return &m
}
