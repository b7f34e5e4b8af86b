// Package schedule holds the pure scheduling logic: the overlap test that
// decides whether two bookings collide and the expansion of recurrence
// rules into concrete occurrences.  Nothing in this package touches the
// database or the network; both the advisory (client-side) and the
// authoritative (store-side) conflict checks call the same functions so
// the two phases can never disagree on what a conflict is.
package schedule

import (
	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// Overlaps reports whether two occurrences on the same calendar day
// collide.  The predicate is strict on both ends, so back-to-back
// bookings where one ends exactly when the other starts do not conflict.
func Overlaps(a, b model.Occurrence) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Conflicts returns the occurrences in pool that collide with candidate,
// as conflict candidates in the pool's original order.  Callers editing a
// committed occurrence pass its own id as excludeID so it never conflicts
// with its previous version; for a fresh draft excludeID is 0.
//
// Filtering rules, applied before the overlap predicate:
//   - the entry whose id equals excludeID is dropped;
//   - cancelled occurrences are dropped;
//   - occurrences on a different calendar day than the candidate are
//     dropped, even if their intervals would numerically overlap.
//
// The candidate must already be validated (Start < End); the pool should
// be narrowed to a relevant date range by the caller.  The scan is O(n)
// and stable, so repeated calls over the same pool yield identical lists.
func Conflicts(candidate model.Occurrence, pool []model.Occurrence, excludeID uint64) []model.ConflictCandidate {
	var out []model.ConflictCandidate
	for _, other := range pool {
		if excludeID != 0 && other.ID == excludeID {
			continue
		}
		if other.Status == model.StatusCancelled {
			continue
		}
		if !model.SameCalendarDay(candidate.Start, other.Start) {
			continue
		}
		if !Overlaps(candidate, other) {
			continue
		}
		out = append(out, model.ConflictCandidate{
			OccurrenceID:  other.ID,
			DisplayClient: other.Title,
			Start:         other.Start,
			End:           other.End,
		})
	}
	return out
}
