package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/schedule"
)

// conflictErr mimics the store's conflict rejection without pulling the
// repository package into these tests.
type conflictErr struct {
	conflicts []model.ConflictCandidate
}

func (e *conflictErr) Error() string { return "schedule conflict" }
func (e *conflictErr) Response() model.ConflictResponse {
	return model.ConflictResponse{Conflicts: e.conflicts}
}

// dependencyErr mimics the store's blocked-delete rejection.
type dependencyErr struct{}

func (e *dependencyErr) Error() string      { return "occurrence has dependents" }
func (e *dependencyErr) DependencyBlocked() {}

// memStore is an in-memory Store that runs the same overlap test the
// real store runs, atomically per call.
type memStore struct {
	occurrences []model.Occurrence
	nextID      uint64

	createErr error // when set, Create fails with it
	deleteErr error // when set, Delete fails with it

	createCalls int
}

func newMemStore() *memStore { return &memStore{nextID: 100} }

func (s *memStore) List(_ context.Context, calendarID uint64, from, to time.Time) ([]model.Occurrence, error) {
	var out []model.Occurrence
	for _, occ := range s.occurrences {
		if occ.CalendarID == calendarID && !occ.Start.Before(from) && occ.Start.Before(to) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, occ model.Occurrence, force bool) (model.Occurrence, error) {
	s.createCalls++
	if s.createErr != nil {
		return model.Occurrence{}, s.createErr
	}
	if !force {
		if conflicts := schedule.Conflicts(occ, s.occurrences, 0); len(conflicts) > 0 {
			return model.Occurrence{}, &conflictErr{conflicts: conflicts}
		}
	}
	s.nextID++
	occ.ID = s.nextID
	s.occurrences = append(s.occurrences, occ)
	return occ, nil
}

func (s *memStore) Update(_ context.Context, id uint64, occ model.Occurrence, force bool) (model.Occurrence, error) {
	if !force {
		if conflicts := schedule.Conflicts(occ, s.occurrences, id); len(conflicts) > 0 {
			return model.Occurrence{}, &conflictErr{conflicts: conflicts}
		}
	}
	for i := range s.occurrences {
		if s.occurrences[i].ID == id {
			occ.ID = id
			s.occurrences[i] = occ
			return occ, nil
		}
	}
	return model.Occurrence{}, errors.New("not found")
}

func (s *memStore) Delete(_ context.Context, id uint64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i := range s.occurrences {
		if s.occurrences[i].ID == id {
			s.occurrences = append(s.occurrences[:i], s.occurrences[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

// memRules records rule creations.
type memRules struct {
	created []model.RecurrenceRule
	err     error
}

func (r *memRules) Create(_ context.Context, rule model.RecurrenceRule) (model.RecurrenceRule, error) {
	if r.err != nil {
		return model.RecurrenceRule{}, r.err
	}
	rule.ID = uint64(len(r.created) + 1)
	r.created = append(r.created, rule)
	return rule, nil
}

func slot(calendarID uint64, day time.Time, startHour, endHour int) model.Occurrence {
	return model.Occurrence{
		CalendarID:  calendarID,
		SubjectType: model.SubjectConsultation,
		Title:       "consultation",
		Start:       day.Add(time.Duration(startHour) * time.Hour),
		End:         day.Add(time.Duration(endHour) * time.Hour),
		Status:      model.StatusPending,
	}
}

var testDay = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func TestSubmitValidatesBeforeStore(t *testing.T) {
	store := newMemStore()
	s := New(store, &memRules{})

	bad := slot(1, testDay, 10, 9) // end before start

	_, err := s.Submit(context.Background(), bad, 0, false)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "end", vErr.Field)
	// the store was never contacted
	assert.Zero(t, store.createCalls)
}

func TestSubmitConflictThenForceOverride(t *testing.T) {
	store := newMemStore()
	s := New(store, &memRules{})
	ctx := context.Background()

	first, err := s.Submit(ctx, slot(1, testDay, 9, 10), 0, false)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	// overlapping candidate is rejected with the blocker listed
	candidate := slot(1, testDay, 9, 11)
	_, err = s.Submit(ctx, candidate, 0, false)
	require.Error(t, err)
	conflicts, ok := ConflictsOf(err)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, first.ID, conflicts[0].OccurrenceID)

	// identical resubmission with the force flag commits unconditionally
	committed, err := s.Submit(ctx, candidate, 0, true)
	require.NoError(t, err)
	assert.NotZero(t, committed.ID)
	assert.Len(t, store.occurrences, 2)
}

func TestSubmitBackToBackNeverConflicts(t *testing.T) {
	store := newMemStore()
	s := New(store, &memRules{})
	ctx := context.Background()

	_, err := s.Submit(ctx, slot(1, testDay, 9, 10), 0, false)
	require.NoError(t, err)

	_, err = s.Submit(ctx, slot(1, testDay, 10, 11), 0, false)
	require.NoError(t, err)
}

func TestSubmitEditExcludesOwnPriorVersion(t *testing.T) {
	store := newMemStore()
	s := New(store, &memRules{})
	ctx := context.Background()

	committed, err := s.Submit(ctx, slot(1, testDay, 9, 10), 0, false)
	require.NoError(t, err)

	// nudging the booking inside its own original slot must not collide
	// with its previous version
	edited := slot(1, testDay, 9, 10)
	edited.Start = edited.Start.Add(15 * time.Minute)
	edited.End = edited.End.Add(15 * time.Minute)

	updated, err := s.Submit(ctx, edited, committed.ID, false)
	require.NoError(t, err)
	assert.Equal(t, committed.ID, updated.ID)
}

func TestSubmitWrapsTransportFailures(t *testing.T) {
	store := newMemStore()
	boom := errors.New("connection reset")
	store.createErr = boom
	s := New(store, &memRules{})

	_, err := s.Submit(context.Background(), slot(1, testDay, 9, 10), 0, false)

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.ErrorIs(t, err, boom)
	// a dropped request is never reported as a conflict
	_, ok := ConflictsOf(err)
	assert.False(t, ok)
}

func TestDeleteDependencyPassthrough(t *testing.T) {
	store := newMemStore()
	store.deleteErr = &dependencyErr{}
	s := New(store, &memRules{})

	err := s.Delete(context.Background(), 1)

	var dErr *dependencyErr
	require.ErrorAs(t, err, &dErr)
	var tErr *TransportError
	assert.False(t, errors.As(err, &tErr))
}

func TestCreateSeriesBestEffort(t *testing.T) {
	store := newMemStore()
	rules := &memRules{}
	s := New(store, rules)
	ctx := context.Background()

	// pre-existing booking collides with the third week of the series
	blocker := slot(1, testDay.AddDate(0, 0, 14), 9, 10)
	_, err := s.Submit(ctx, blocker, 0, false)
	require.NoError(t, err)

	anchor := slot(1, testDay, 9, 10)
	rule := model.RecurrenceRule{
		Frequency: model.FreqWeekly,
		EndDate:   testDay.AddDate(0, 0, 21),
	}

	res, err := s.CreateSeries(ctx, rule, anchor, false)
	require.NoError(t, err)

	// weeks 1, 2 and 4 commit; week 3 is rejected but does not roll the
	// others back
	require.Len(t, res.Committed, 3)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, testDay.AddDate(0, 0, 14).Add(9*time.Hour), res.Rejected[0].Occurrence.Start)
	require.Len(t, res.Rejected[0].Conflicts, 1)

	// the rule row was written against the committed anchor
	require.Len(t, rules.created, 1)
	assert.Equal(t, res.Committed[0].ID, rules.created[0].AnchorOccurrenceID)
	assert.NotZero(t, res.Rule.ID)

	// members after the anchor carry the rule id
	for _, occ := range res.Committed[1:] {
		require.NotNil(t, occ.RecurrenceRuleID)
		assert.Equal(t, res.Rule.ID, *occ.RecurrenceRuleID)
	}
}

func TestCreateSeriesAnchorRejectedAbortsSeries(t *testing.T) {
	store := newMemStore()
	rules := &memRules{}
	s := New(store, rules)
	ctx := context.Background()

	_, err := s.Submit(ctx, slot(1, testDay, 9, 10), 0, false)
	require.NoError(t, err)

	rule := model.RecurrenceRule{
		Frequency: model.FreqWeekly,
		EndDate:   testDay.AddDate(0, 0, 21),
	}
	res, err := s.CreateSeries(ctx, rule, slot(1, testDay, 9, 11), false)

	require.Error(t, err)
	_, ok := ConflictsOf(err)
	assert.True(t, ok)
	assert.Empty(t, res.Committed)
	// no rule row without an anchor
	assert.Empty(t, rules.created)
}

func TestCreateSeriesIneffectiveRuleIsValidationError(t *testing.T) {
	s := New(newMemStore(), &memRules{})

	rule := model.RecurrenceRule{
		Frequency: model.FreqWeekly,
		EndDate:   testDay.AddDate(0, 0, -7),
	}
	_, err := s.CreateSeries(context.Background(), rule, slot(1, testDay, 9, 10), false)

	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "end_date", vErr.Field)
}

func TestCreateSeriesNoneFrequency(t *testing.T) {
	store := newMemStore()
	rules := &memRules{}
	s := New(store, rules)

	res, err := s.CreateSeries(context.Background(), model.RecurrenceRule{Frequency: model.FreqNone}, slot(1, testDay, 9, 10), false)
	require.NoError(t, err)
	require.Len(t, res.Committed, 1)
	// a non-repeating "rule" writes no rule row
	assert.Empty(t, rules.created)
	assert.Zero(t, res.Rule.ID)
}

func TestCreateSeriesWithForceCommitsEverything(t *testing.T) {
	store := newMemStore()
	s := New(store, &memRules{})
	ctx := context.Background()

	_, err := s.Submit(ctx, slot(1, testDay.AddDate(0, 0, 7), 9, 10), 0, false)
	require.NoError(t, err)

	rule := model.RecurrenceRule{
		Frequency: model.FreqWeekly,
		EndDate:   testDay.AddDate(0, 0, 14),
	}
	res, err := s.CreateSeries(ctx, rule, slot(1, testDay, 9, 10), true)
	require.NoError(t, err)
	assert.Len(t, res.Committed, 3)
	assert.Empty(t, res.Rejected)
}

func TestCheckLocalToleratesStalePool(t *testing.T) {
	s := New(newMemStore(), &memRules{})

	// the cached pool is whatever the composer last fetched; the check is
	// pure and touches no storage
	pool := []model.Occurrence{
		func() model.Occurrence {
			o := slot(1, testDay, 9, 10)
			o.ID = 55
			return o
		}(),
	}

	conflicts, err := s.CheckLocal(slot(1, testDay, 9, 11), pool, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(55), conflicts[0].OccurrenceID)

	conflicts, err = s.CheckLocal(slot(1, testDay, 12, 13), pool, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckLocalValidatesCandidate(t *testing.T) {
	s := New(newMemStore(), &memRules{})

	_, err := s.CheckLocal(slot(0, testDay, 9, 10), nil, 0)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "calendar_id", vErr.Field)
}
