package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// occAt builds a pending consultation on calendar 1 for the given
// wall-clock window on 2024-03-04.
func occAt(id uint64, startHour, startMin, endHour, endMin int) model.Occurrence {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return model.Occurrence{
		ID:          id,
		CalendarID:  1,
		SubjectType: model.SubjectConsultation,
		Title:       "client meeting",
		Start:       day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:         day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
		Status:      model.StatusPending,
	}
}

func TestOverlapsStrictOnBothEnds(t *testing.T) {
	cases := []struct {
		name string
		a, b model.Occurrence
		want bool
	}{
		{"partial overlap", occAt(1, 9, 0, 10, 0), occAt(2, 9, 30, 10, 30), true},
		{"containment", occAt(1, 9, 0, 12, 0), occAt(2, 10, 0, 11, 0), true},
		{"identical window", occAt(1, 9, 0, 10, 0), occAt(2, 9, 0, 10, 0), true},
		{"back to back, a first", occAt(1, 9, 0, 10, 0), occAt(2, 10, 0, 11, 0), false},
		{"back to back, b first", occAt(1, 10, 0, 11, 0), occAt(2, 9, 0, 10, 0), false},
		{"disjoint", occAt(1, 9, 0, 10, 0), occAt(2, 14, 0, 15, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			// the predicate is symmetric
			assert.Equal(t, tc.want, Overlaps(tc.b, tc.a))
		})
	}
}

func TestConflictsExcludesOwnPriorVersion(t *testing.T) {
	pool := []model.Occurrence{
		occAt(7, 9, 0, 10, 0),
		occAt(8, 9, 30, 10, 30),
	}
	// editing occurrence 7: shifted but still overlapping its old slot
	candidate := occAt(0, 9, 15, 10, 15)

	got := Conflicts(candidate, pool, 7)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(8), got[0].OccurrenceID)

	// a fresh draft sees both
	got = Conflicts(candidate, pool, 0)
	require.Len(t, got, 2)
}

func TestConflictsSkipsCancelled(t *testing.T) {
	cancelled := occAt(3, 9, 0, 10, 0)
	cancelled.Status = model.StatusCancelled
	pool := []model.Occurrence{cancelled, occAt(4, 9, 0, 10, 0)}

	got := Conflicts(occAt(0, 9, 30, 10, 30), pool, 0)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(4), got[0].OccurrenceID)
}

func TestConflictsFiltersOtherCalendarDays(t *testing.T) {
	nextDay := occAt(5, 9, 0, 10, 0)
	nextDay.Start = nextDay.Start.AddDate(0, 0, 1)
	nextDay.End = nextDay.End.AddDate(0, 0, 1)
	pool := []model.Occurrence{nextDay}

	got := Conflicts(occAt(0, 9, 0, 10, 0), pool, 0)
	assert.Empty(t, got)
}

func TestConflictsPreservesPoolOrder(t *testing.T) {
	pool := []model.Occurrence{
		occAt(12, 9, 30, 10, 30),
		occAt(3, 9, 0, 9, 45),
		occAt(25, 9, 15, 11, 0),
	}
	candidate := occAt(0, 9, 0, 10, 0)

	first := Conflicts(candidate, pool, 0)
	require.Len(t, first, 3)
	assert.Equal(t, uint64(12), first[0].OccurrenceID)
	assert.Equal(t, uint64(3), first[1].OccurrenceID)
	assert.Equal(t, uint64(25), first[2].OccurrenceID)

	// identical pool, identical answer
	second := Conflicts(candidate, pool, 0)
	assert.Equal(t, first, second)
}

func TestConflictsCarriesDisplayPayload(t *testing.T) {
	other := occAt(9, 9, 0, 10, 0)
	other.Title = "Dana Cohen"

	got := Conflicts(occAt(0, 9, 30, 10, 30), []model.Occurrence{other}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Dana Cohen", got[0].DisplayClient)
	assert.Equal(t, other.Start, got[0].Start)
	assert.Equal(t, other.End, got[0].End)
}

func TestConflictsEmptyPool(t *testing.T) {
	assert.Empty(t, Conflicts(occAt(0, 9, 0, 10, 0), nil, 0))
}
