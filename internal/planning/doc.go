// Package planning drives day planning on top of the placer.
//
// Planner is the manual path: each placement is validated against a fresh
// snapshot and written back to the store immediately. Session is the
// suggestion path, a small state machine:
//
//	Idle -> Requesting -> PreviewPending -> Applying -> Idle
//	                      PreviewPending -> Idle (Reject)
//
// Nothing a suggester returns is trusted. Entries are re-validated before a
// preview is shown and again, one by one, when the preview is applied.
package planning
