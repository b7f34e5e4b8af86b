package model

import "time"

// Recurrence frequencies.  The application supports whole-day stepping
// only; there is no hourly or otherwise sub-day recurrence.
const (
	FreqNone    = "none"
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
)

// RecurrenceRule describes how an anchor occurrence repeats.  Every
// occurrence generated from a rule inherits the anchor's time-of-day and
// duration exactly; only the calendar date advances.  EndDate is an
// inclusive bound on generated start dates and is required whenever the
// frequency is not "none".
type RecurrenceRule struct {
	ID                 uint64    `json:"id"`
	Frequency          string    `json:"frequency"`
	EndDate            time.Time `json:"end_date,omitzero"`
	AnchorOccurrenceID uint64    `json:"anchor_occurrence_id"`
	CreatedAt          time.Time `json:"created_at,omitzero"`
}

// ValidFrequency reports whether f is one of the known frequencies.
func ValidFrequency(f string) bool {
	switch f {
	case FreqNone, FreqDaily, FreqWeekly, FreqMonthly:
		return true
	}
	return false
}

// Validate checks the rule's own fields.  Consistency with the anchor
// (for example an end date before the anchor's date) is the expander's
// concern, not the rule's.
func (r RecurrenceRule) Validate() error {
	if !ValidFrequency(r.Frequency) {
		return &ValidationError{Field: "frequency", Reason: "unknown frequency"}
	}
	if r.Frequency != FreqNone && r.EndDate.IsZero() {
		return &ValidationError{Field: "end_date", Reason: "end date is required for a repeating rule"}
	}
	return nil
}
