// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import "fmt"

// Edge records that Predecessor must complete before Successor may start.
type Edge struct {
	Predecessor string `json:"predecessor_id" yaml:"predecessor_id"`
	Successor   string `json:"successor_id" yaml:"successor_id"`
}

// String renders the edge as "pred -> succ" for logs and error messages.
func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Predecessor, e.Successor)
}

// Touches reports whether either endpoint of the edge is id.
func (e Edge) Touches(id string) bool {
	return e.Predecessor == id || e.Successor == id
}
