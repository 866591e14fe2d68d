package dag

import (
	"sort"
	"sync"
)

// Graph is a collection of task nodes and their dependency edges.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by task ID.
	nodes map[string]*node
	// edgeCount is the number of distinct edges currently linked.
	edgeCount int
}

// node represents a single task in the graph. It is un-exported to enforce
// interaction with the graph via the public API (using string IDs).
type node struct {
	// id is the task identifier.
	id string
	// deps holds the direct predecessors of this task.
	deps map[string]*node
	// dependents holds the direct successors of this task.
	dependents map[string]*node
}

// Set is an unordered collection of task IDs.
type Set map[string]struct{}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of IDs in the set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the IDs in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the IDs present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for id := range s {
		if other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}
