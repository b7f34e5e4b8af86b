package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

func anchorOn(y int, m time.Month, d, hour int) model.Occurrence {
	start := time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
	return model.Occurrence{
		ID:          41,
		CalendarID:  1,
		SubjectType: model.SubjectMeeting,
		Title:       "weekly sync",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      model.StatusConfirmed,
	}
}

func dateOnly(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandNoneReturnsAnchorOnly(t *testing.T) {
	anchor := anchorOn(2024, time.January, 1, 9)
	got, err := Expand(model.RecurrenceRule{Frequency: model.FreqNone}, anchor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, anchor, got[0])
}

func TestExpandWeekly(t *testing.T) {
	anchor := anchorOn(2024, time.January, 1, 9)
	rule := model.RecurrenceRule{
		ID:        5,
		Frequency: model.FreqWeekly,
		EndDate:   dateOnly(2024, time.January, 22),
	}

	got, err := Expand(rule, anchor)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// the anchor itself comes back verbatim
	assert.Equal(t, anchor, got[0])

	wantDays := []int{1, 8, 15, 22}
	for i, occ := range got {
		assert.Equal(t, wantDays[i], occ.Start.Day())
		assert.Equal(t, 9, occ.Start.Hour())
		assert.Equal(t, time.Hour, occ.End.Sub(occ.Start))
	}
	for _, occ := range got[1:] {
		assert.Zero(t, occ.ID)
		require.NotNil(t, occ.RecurrenceRuleID)
		assert.Equal(t, uint64(5), *occ.RecurrenceRuleID)
	}
}

func TestExpandDailyEndDateInclusive(t *testing.T) {
	anchor := anchorOn(2024, time.March, 1, 9)
	rule := model.RecurrenceRule{
		Frequency: model.FreqDaily,
		EndDate:   dateOnly(2024, time.March, 3),
	}

	got, err := Expand(rule, anchor)
	require.NoError(t, err)
	// an occurrence starting on the end date still belongs to the series
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[2].Start.Day())
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	anchor := anchorOn(2024, time.January, 31, 10)
	rule := model.RecurrenceRule{
		Frequency: model.FreqMonthly,
		EndDate:   dateOnly(2024, time.April, 30),
	}

	got, err := Expand(rule, anchor)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// 2024 is a leap year: January 31st clamps to February 29th, returns
	// to the 31st in March, and clamps again to April 30th.
	assert.Equal(t, time.January, got[0].Start.Month())
	assert.Equal(t, 31, got[0].Start.Day())
	assert.Equal(t, time.February, got[1].Start.Month())
	assert.Equal(t, 29, got[1].Start.Day())
	assert.Equal(t, time.March, got[2].Start.Month())
	assert.Equal(t, 31, got[2].Start.Day())
	assert.Equal(t, time.April, got[3].Start.Month())
	assert.Equal(t, 30, got[3].Start.Day())

	// time-of-day and duration are inherited exactly
	for _, occ := range got {
		assert.Equal(t, 10, occ.Start.Hour())
		assert.Equal(t, time.Hour, occ.End.Sub(occ.Start))
	}
}

func TestExpandMonthlyMidMonthDoesNotClamp(t *testing.T) {
	anchor := anchorOn(2024, time.January, 15, 14)
	rule := model.RecurrenceRule{
		Frequency: model.FreqMonthly,
		EndDate:   dateOnly(2024, time.March, 15),
	}

	got, err := Expand(rule, anchor)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, occ := range got {
		assert.Equal(t, 15, occ.Start.Day())
	}
}

func TestExpandIneffectiveRule(t *testing.T) {
	anchor := anchorOn(2024, time.June, 10, 9)
	rule := model.RecurrenceRule{
		Frequency: model.FreqWeekly,
		EndDate:   dateOnly(2024, time.June, 3),
	}

	got, err := Expand(rule, anchor)
	require.ErrorIs(t, err, ErrRuleIneffective)
	// the anchor alone still comes back for display purposes
	require.Len(t, got, 1)
	assert.Equal(t, anchor, got[0])
}

func TestExpandEndDateOnAnchorDay(t *testing.T) {
	anchor := anchorOn(2024, time.June, 10, 9)
	rule := model.RecurrenceRule{
		Frequency: model.FreqDaily,
		EndDate:   dateOnly(2024, time.June, 10),
	}

	// end date equals the anchor's date: not ineffective, just a
	// single-element series
	got, err := Expand(rule, anchor)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestExpandValidatesInputs(t *testing.T) {
	anchor := anchorOn(2024, time.January, 1, 9)

	var vErr *model.ValidationError

	_, err := Expand(model.RecurrenceRule{Frequency: "hourly"}, anchor)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "frequency", vErr.Field)

	_, err = Expand(model.RecurrenceRule{Frequency: model.FreqDaily}, anchor)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "end_date", vErr.Field)

	bad := anchor
	bad.End = bad.Start.Add(-time.Hour)
	_, err = Expand(model.RecurrenceRule{Frequency: model.FreqNone}, bad)
	require.ErrorAs(t, err, &vErr)
}

func TestExpandIsDeterministic(t *testing.T) {
	anchor := anchorOn(2024, time.January, 1, 9)
	rule := model.RecurrenceRule{
		ID:        2,
		Frequency: model.FreqDaily,
		EndDate:   dateOnly(2024, time.February, 1),
	}

	first, err := Expand(rule, anchor)
	require.NoError(t, err)
	second, err := Expand(rule, anchor)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
