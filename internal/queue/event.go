// Package queue defines message payloads exchanged over the message broker.
package queue

// OccurrenceCommittedEvent is published after an occurrence commits
// (create or edit).  Overridden carries the force flag so downstream
// consumers can flag deliberate double-bookings in reminders and digests
// without querying the primary database.
type OccurrenceCommittedEvent struct {
	OccurrenceID uint64 `json:"occurrence_id"`
	CalendarID   uint64 `json:"calendar_id"`
	SecretaryID  uint64 `json:"secretary_id"`
	SubjectType  string `json:"subject_type"`
	Title        string `json:"title"`
	ClientName   string `json:"client_name,omitempty"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Overridden   bool   `json:"overridden"`
	CommittedAt  string `json:"committed_at"`
}

// OccurrenceCancelledEvent is published after an occurrence is deleted,
// so reminder pipelines can withdraw anything already scheduled for it.
type OccurrenceCancelledEvent struct {
	OccurrenceID uint64 `json:"occurrence_id"`
	CalendarID   uint64 `json:"calendar_id"`
	SecretaryID  uint64 `json:"secretary_id"`
	CancelledAt  string `json:"cancelled_at"`
}
