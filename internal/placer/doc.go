// Package placer assigns flexible items to start times within one day
// without ever producing an overlap.
//
// A Placer is built from an immutable day snapshot. Fixed items occupy their
// intervals, flexible items already scheduled on the day occupy theirs, and
// unscheduled flexible items form the pool. Manual placement (PlaceAt) and
// externally suggested plans (ValidateSuggestions) go through the same
// overlap check; conflicts are a hard stop and neighbours are never nudged.
//
// A Placer is not safe for concurrent use. Build one per request.
package placer
