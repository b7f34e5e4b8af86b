package model

import "time"

// Subject types accepted for an occurrence.  The subject type describes
// what kind of booking occupies the slot; it has no influence on conflict
// detection and is carried through to the calendar UI unchanged.
const (
	SubjectConsultation = "consultation"
	SubjectMeeting      = "meeting"
	SubjectCourtSession = "court_session"
)

// Occurrence statuses.  Cancelled occurrences remain in the database for
// audit purposes but are invisible to conflict checks.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Occurrence is a single concrete, time-boxed booking on a practice
// calendar.  A draft occurrence has ID 0; the ID is assigned by the store
// when the occurrence is committed.  Start and End are wall-clock instants
// in the practice's single implicit timezone and must satisfy Start < End.
//
// ClientID, Title, Location and Notes are display payload: the scheduling
// core never inspects them when deciding whether two occurrences conflict.
type Occurrence struct {
	ID               uint64    `json:"id"`
	CalendarID       uint64    `json:"calendar_id"`
	ClientID         *uint64   `json:"client_id,omitempty"`
	SubjectType      string    `json:"subject_type"`
	Title            string    `json:"title"`
	Location         string    `json:"location,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Status           string    `json:"status"`
	RecurrenceRuleID *uint64   `json:"recurrence_rule_id,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// ValidSubjectType reports whether s is one of the known subject types.
func ValidSubjectType(s string) bool {
	switch s {
	case SubjectConsultation, SubjectMeeting, SubjectCourtSession:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known occurrence statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Validate checks the fields an occurrence must carry before it may enter
// a conflict check.  It returns a *ValidationError naming the offending
// field, or nil.  Validation runs before any conflict logic so that a
// malformed candidate is never mistaken for a conflicting one.
//
// An occurrence whose interval crosses midnight is rejected here: the
// conflict filter only ever compares occurrences on the same calendar day,
// so a cross-midnight booking could silently escape checking against the
// following day.
func (o Occurrence) Validate() error {
	if o.CalendarID == 0 {
		return &ValidationError{Field: "calendar_id", Reason: "calendar is required"}
	}
	if !ValidSubjectType(o.SubjectType) {
		return &ValidationError{Field: "subject_type", Reason: "unknown subject type"}
	}
	if o.Status != "" && !ValidStatus(o.Status) {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if o.Start.IsZero() {
		return &ValidationError{Field: "start", Reason: "start time is required"}
	}
	if o.End.IsZero() {
		return &ValidationError{Field: "end", Reason: "end time is required"}
	}
	if !o.Start.Before(o.End) {
		return &ValidationError{Field: "end", Reason: "end must be after start"}
	}
	if !SameCalendarDay(o.Start, o.End) {
		return &ValidationError{Field: "end", Reason: "occurrence may not cross midnight"}
	}
	return nil
}

// SameCalendarDay reports whether a and b fall on the same calendar date.
// Both instants are interpreted in the timezone they carry; the practice
// operates in a single implicit timezone, so no conversion is performed.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayBounds returns the half-open interval [midnight, next midnight) that
// contains t.  The store uses it to scope the authoritative conflict query
// and its range lock to a single calendar day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
