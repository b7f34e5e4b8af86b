package model

import "time"

// Session is a scheduled court session prepared against a booked
// occurrence.  A session is the canonical dependent record: as long as
// one exists, the occurrence it references may not be deleted.
type Session struct {
	ID           uint64    `json:"id"`
	OccurrenceID uint64    `json:"occurrence_id"`
	CaseNumber   string    `json:"case_number"`
	Court        string    `json:"court,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}
