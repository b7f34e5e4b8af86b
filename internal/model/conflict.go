package model

import "time"

// ConflictCandidate is a read-only projection of an existing occurrence
// that clashes with a submitted one.  It carries just enough for the UI
// to explain the conflict: who the slot belongs to and when it runs.
type ConflictCandidate struct {
	OccurrenceID  uint64    `json:"occurrence_id"`
	DisplayClient string    `json:"display_client"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// ConflictResponse is the wire shape returned instead of a commit when
// the authoritative check rejects a submission.
type ConflictResponse struct {
	Conflicts []ConflictCandidate `json:"conflicts"`
}
