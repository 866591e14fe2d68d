package dag

// direction selects which adjacency a traversal follows.
type direction int

const (
	forward direction = iota // predecessor -> successor
	reverse                  // successor -> predecessor
)

func (n *node) neighbours(dir direction) map[string]*node {
	if dir == forward {
		return n.dependents
	}
	return n.deps
}

// closureLocked runs a breadth-first traversal from start, visiting each node
// at most once. start itself is only included when it is reached again
// through an edge, which can only happen on a malformed, cyclic snapshot.
func (g *Graph) closureLocked(start string, dir direction) Set {
	out := make(Set)
	n, ok := g.nodes[start]
	if !ok {
		return out
	}

	visited := map[string]struct{}{start: {}}
	queue := []*node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for id, next := range cur.neighbours(dir) {
			if id == start {
				out[id] = struct{}{}
			}
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			out[id] = struct{}{}
			queue = append(queue, next)
		}
	}
	return out
}

// reachableLocked reports whether target can be reached from start by
// following one or more forward edges.
func (g *Graph) reachableLocked(start, target string) bool {
	n, ok := g.nodes[start]
	if !ok {
		return false
	}

	visited := map[string]struct{}{start: {}}
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for id, next := range cur.dependents {
			if id == target {
				return true
			}
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}

// WouldCreateCycle reports whether adding predecessor -> successor would close
// a cycle. A self-loop is always a cycle. Otherwise the proposed edge closes a
// cycle exactly when predecessor is already reachable from successor: any
// path through the augmented graph that returns to predecessor must reach it
// without using the new edge, since that edge leaves predecessor.
func (g *Graph) WouldCreateCycle(predecessorID, successorID string) bool {
	if predecessorID == successorID {
		return true
	}
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.reachableLocked(successorID, predecessorID)
}

// AllPredecessors returns the transitive predecessors of id.
func (g *Graph) AllPredecessors(id string) Set {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.closureLocked(id, reverse)
}

// AllSuccessors returns the transitive successors of id.
func (g *Graph) AllSuccessors(id string) Set {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.closureLocked(id, forward)
}

// InvalidPredecessors returns the IDs that may not be chosen as a new
// predecessor of id: id itself plus every transitive successor.
func (g *Graph) InvalidPredecessors(id string) Set {
	out := g.AllSuccessors(id)
	out[id] = struct{}{}
	return out
}
