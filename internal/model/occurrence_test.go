package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOccurrence() Occurrence {
	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	return Occurrence{
		CalendarID:  1,
		SubjectType: SubjectConsultation,
		Title:       "intake meeting",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      StatusPending,
	}
}

func TestValidateAcceptsWellFormedOccurrence(t *testing.T) {
	require.NoError(t, validOccurrence().Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Occurrence)
		wantField string
	}{
		{"missing calendar", func(o *Occurrence) { o.CalendarID = 0 }, "calendar_id"},
		{"unknown subject", func(o *Occurrence) { o.SubjectType = "vacation" }, "subject_type"},
		{"unknown status", func(o *Occurrence) { o.Status = "tentative" }, "status"},
		{"zero start", func(o *Occurrence) { o.Start = time.Time{} }, "start"},
		{"zero end", func(o *Occurrence) { o.End = time.Time{} }, "end"},
		{"end before start", func(o *Occurrence) { o.End = o.Start.Add(-time.Minute) }, "end"},
		{"zero duration", func(o *Occurrence) { o.End = o.Start }, "end"},
		{"crosses midnight", func(o *Occurrence) {
			o.Start = time.Date(2024, 5, 6, 23, 0, 0, 0, time.UTC)
			o.End = time.Date(2024, 5, 7, 1, 0, 0, 0, time.UTC)
		}, "end"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			occ := validOccurrence()
			tc.mutate(&occ)
			err := occ.Validate()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantField, vErr.Field)
		})
	}
}

func TestValidateEmptyStatusAllowed(t *testing.T) {
	occ := validOccurrence()
	occ.Status = ""
	assert.NoError(t, occ.Validate())
}

func TestSameCalendarDay(t *testing.T) {
	morning := time.Date(2024, 5, 6, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, 5, 6, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameCalendarDay(morning, night))
	assert.False(t, SameCalendarDay(night, nextDay))
}

func TestDayBounds(t *testing.T) {
	instant := time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC)
	from, to := DayBounds(instant)

	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), to)
}

func TestRecurrenceRuleValidate(t *testing.T) {
	var vErr *ValidationError

	err := RecurrenceRule{Frequency: "hourly"}.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "frequency", vErr.Field)

	err = RecurrenceRule{Frequency: FreqWeekly}.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "end_date", vErr.Field)

	assert.NoError(t, RecurrenceRule{Frequency: FreqNone}.Validate())
	assert.NoError(t, RecurrenceRule{
		Frequency: FreqMonthly,
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}.Validate())
}
