package dag

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/taskgrid/internal/model"
)

// New indexes an edge snapshot into a Graph. Endpoints are registered as
// nodes implicitly. The snapshot is linked as-is, without validation, so a
// malformed snapshot can still be inspected with DetectCycles.
func New(edges []model.Edge) *Graph {
	g := &Graph{
		nodes: make(map[string]*node),
	}
	for _, e := range edges {
		g.addNodeLocked(e.Predecessor)
		g.addNodeLocked(e.Successor)
		g.linkLocked(e.Predecessor, e.Successor)
	}
	return g
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.addNodeLocked(id)
}

func (g *Graph) addNodeLocked(id string) *node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	return n
}

func (g *Graph) linkLocked(predID, succID string) {
	pred, succ := g.nodes[predID], g.nodes[succID]
	if _, ok := pred.dependents[succID]; ok {
		return
	}
	pred.dependents[succID] = succ
	succ.deps[predID] = pred
	g.edgeCount++
}

// AddEdge validates and links predecessor -> successor. Both nodes must
// already exist. The edge is refused when it is a self-edge, a duplicate, or
// when it would close a cycle. Adjacency is maintained incrementally.
func (g *Graph) AddEdge(predecessorID, successorID string) error {
	if predecessorID == successorID {
		return newEdgeError(ReasonSelfEdge, predecessorID, successorID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	pred, ok := g.nodes[predecessorID]
	if !ok {
		return newEdgeError(ReasonUnknownTask, predecessorID, successorID)
	}
	if _, ok := g.nodes[successorID]; !ok {
		return newEdgeError(ReasonUnknownTask, predecessorID, successorID)
	}
	if _, dup := pred.dependents[successorID]; dup {
		return newEdgeError(ReasonDuplicate, predecessorID, successorID)
	}
	if g.reachableLocked(successorID, predecessorID) {
		return newEdgeError(ReasonCycle, predecessorID, successorID)
	}

	g.linkLocked(predecessorID, successorID)
	return nil
}

// RemoveEdge unlinks predecessor -> successor. Removing a missing edge is a no-op.
func (g *Graph) RemoveEdge(predecessorID, successorID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	pred, ok := g.nodes[predecessorID]
	if !ok {
		return
	}
	succ, ok := pred.dependents[successorID]
	if !ok {
		return
	}
	delete(pred.dependents, successorID)
	delete(succ.deps, predecessorID)
	g.edgeCount--
}

// HasNode reports whether the task is known to the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether predecessor -> successor is already linked.
func (g *Graph) HasEdge(predecessorID, successorID string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	pred, ok := g.nodes[predecessorID]
	if !ok {
		return false
	}
	_, ok = pred.dependents[successorID]
	return ok
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.edgeCount
}

// Edges returns every edge, sorted by predecessor then successor.
func (g *Graph) Edges() []model.Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]model.Edge, 0, g.edgeCount)
	for _, n := range g.nodes {
		for succID := range n.dependents {
			out = append(out, model.Edge{Predecessor: n.id, Successor: succID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Predecessor != out[j].Predecessor {
			return out[i].Predecessor < out[j].Predecessor
		}
		return out[i].Successor < out[j].Successor
	})
	return out
}

// DirectPredecessors returns the immediate predecessors of id, sorted.
func (g *Graph) DirectPredecessors(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return []string{}
	}
	return sortedKeys(n.deps)
}

// DirectSuccessors returns the immediate successors of id, sorted.
func (g *Graph) DirectSuccessors(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return []string{}
	}
	return sortedKeys(n.dependents)
}

// DetectCycles checks the graph for any cycles using Kahn's algorithm. It
// returns a non-nil error naming the nodes that could not be ordered.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalOrder()
	return err
}

// TopologicalOrder returns the task IDs ordered so that every predecessor
// precedes its successors. Ties are broken lexically so the order is stable.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	var ready []string
	for id, n := range g.nodes {
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var released []string
		for succID := range g.nodes[id].dependents {
			inDegree[succID]--
			if inDegree[succID] == 0 {
				released = append(released, succID)
			}
		}
		if len(released) > 0 {
			sort.Strings(released)
			ready = append(ready, released...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return order, fmt.Errorf("cycle detected involving nodes %v", stuck)
	}
	return order, nil
}

func sortedKeys(m map[string]*node) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
