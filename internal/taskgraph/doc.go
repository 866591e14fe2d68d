// Package taskgraph is the mutation layer for tasks and their dependencies.
//
// Every edge reaches the store only after it has passed the self-edge,
// duplicate and cycle checks of package dag against a fresh snapshot.
// Mutations are serialized within a Service so two concurrent additions
// cannot together close a cycle.
package taskgraph
