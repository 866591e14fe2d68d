// Package dag maintains the directed acyclic structure of task dependencies.
// Every edge mutation is gated behind a reachability check so the edge set
// never contains a cycle.
//
// The package works on immutable snapshots: callers hand in the current edge
// list and get answers back. A Graph built with New indexes the snapshot into
// forward and reverse adjacency maps once, so several queries over the same
// snapshot do not rescan the edge list. The package-level helpers build a
// fresh Graph per call.
package dag
