// Package scheduler orchestrates the two-phase conflict-resolution
// protocol over an injected occurrence store.
//
// Phase 1 (advisory) runs the shared overlap tester against whatever
// window the composer has cached; it exists for fast feedback and
// tolerates staleness.  Phase 2 (authoritative) happens inside the store,
// which re-runs the identical test atomically with the write.  A
// submission rejected in phase 2 comes back as a conflict error carrying
// the full conflict list; the user then either abandons the attempt or
// resubmits the identical payload with the force flag, which commits
// unconditionally.  The override is a deliberate business allowance - a
// practice may double-book two parallel matters - but it must always be
// an explicit resubmission, never an automatic fallback.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/schedule"
)

// Store is the durable, transactional home for occurrences.  Create and
// Update must run the authoritative overlap check and the write as one
// atomic unit, serialized per calendar day, unless force is set; on
// conflict they return an error that unwraps to a conflict list via
// ConflictsOf.  Delete must refuse to remove an occurrence that other
// committed records reference.
type Store interface {
	List(ctx context.Context, calendarID uint64, from, to time.Time) ([]model.Occurrence, error)
	Create(ctx context.Context, occ model.Occurrence, force bool) (model.Occurrence, error)
	Update(ctx context.Context, id uint64, occ model.Occurrence, force bool) (model.Occurrence, error)
	Delete(ctx context.Context, id uint64) error
}

// RuleStore persists recurrence rules for eagerly materialized series.
type RuleStore interface {
	Create(ctx context.Context, rule model.RecurrenceRule) (model.RecurrenceRule, error)
}

// conflictCarrier is the shape a store conflict error must expose.
// repository.ConflictError satisfies it; tests use their own.
type conflictCarrier interface {
	error
	Response() model.ConflictResponse
}

// dependencyCarrier marks a store error as a blocked delete.
type dependencyCarrier interface {
	error
	DependencyBlocked() // marker; see repository.DependencyError
}

// TransportError wraps a store or network failure that is neither a
// conflict nor a dependency rejection.  It is surfaced distinctly so the
// caller never mistakes a dropped request for a scheduling conflict, and
// it is never retried implicitly.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Scheduler is the mutation coordinator: every create, edit and delete of
// an occurrence goes through it, so the protocol cannot be bypassed.
type Scheduler struct {
	store Store
	rules RuleStore
}

// New returns a Scheduler over the given stores.
func New(store Store, rules RuleStore) *Scheduler {
	return &Scheduler{store: store, rules: rules}
}

// CheckLocal is phase 1 of the protocol: a pure conflict check of the
// candidate against a locally cached pool.  The pool may be stale; a
// clean result here is a hint, not a guarantee, and a non-empty result
// only warns - the user may still proceed and defer to the store's
// authoritative check.
func (s *Scheduler) CheckLocal(candidate model.Occurrence, cachedPool []model.Occurrence, excludeID uint64) ([]model.ConflictCandidate, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	return schedule.Conflicts(candidate, cachedPool, excludeID), nil
}

// Submit sends one candidate through phase 2.  A zero excludeID means a
// fresh create; a non-zero one means an edit of that occurrence, which is
// then never compared against its own prior version.  Validation failures
// are rejected before the store is contacted.  Conflict and dependency
// errors from the store pass through unchanged; anything else is wrapped
// in a *TransportError.
func (s *Scheduler) Submit(ctx context.Context, candidate model.Occurrence, excludeID uint64, force bool) (model.Occurrence, error) {
	if err := candidate.Validate(); err != nil {
		return model.Occurrence{}, err
	}
	var (
		committed model.Occurrence
		err       error
		op        string
	)
	if excludeID != 0 {
		op = "update occurrence"
		committed, err = s.store.Update(ctx, excludeID, candidate, force)
	} else {
		op = "create occurrence"
		committed, err = s.store.Create(ctx, candidate, force)
	}
	if err != nil {
		return model.Occurrence{}, classify(op, err)
	}
	return committed, nil
}

// Delete removes a committed occurrence.  No overlap check runs; the
// store's referential-integrity guard decides whether the delete may
// proceed.
func (s *Scheduler) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return classify("delete occurrence", err)
	}
	return nil
}

// RejectedOccurrence pairs a series member that failed phase 2 with the
// conflicts that blocked it.
type RejectedOccurrence struct {
	Occurrence model.Occurrence          `json:"occurrence"`
	Conflicts  []model.ConflictCandidate `json:"conflicts"`
}

// SeriesResult reports the outcome of a best-effort series creation.
type SeriesResult struct {
	Rule      model.RecurrenceRule `json:"rule"`
	Committed []model.Occurrence   `json:"committed"`
	Rejected  []RejectedOccurrence `json:"rejected"`
}

// CreateSeries expands rule around anchor and submits every generated
// occurrence through the protocol independently (best-effort: a conflict
// on one member does not roll back the others).  The anchor is committed
// first and the rule row is written against it; if the anchor itself is
// rejected the series is not created at all, since there is nothing to
// anchor the rule on.  A rule whose end date predates the anchor is
// rejected outright instead of silently producing a one-element series.
func (s *Scheduler) CreateSeries(ctx context.Context, rule model.RecurrenceRule, anchor model.Occurrence, force bool) (SeriesResult, error) {
	var res SeriesResult
	members, err := schedule.Expand(rule, anchor)
	if errors.Is(err, schedule.ErrRuleIneffective) {
		return res, &model.ValidationError{Field: "end_date", Reason: "end date is before the first occurrence"}
	}
	if err != nil {
		return res, err
	}

	committedAnchor, err := s.Submit(ctx, members[0], 0, force)
	if err != nil {
		return res, err
	}
	res.Committed = append(res.Committed, committedAnchor)

	if rule.Frequency == model.FreqNone {
		return res, nil
	}

	rule.AnchorOccurrenceID = committedAnchor.ID
	storedRule, err := s.rules.Create(ctx, rule)
	if err != nil {
		return res, classify("create recurrence rule", err)
	}
	res.Rule = storedRule

	for _, member := range members[1:] {
		ruleID := storedRule.ID
		member.RecurrenceRuleID = &ruleID
		committed, err := s.Submit(ctx, member, 0, force)
		if err != nil {
			if conflicts, ok := ConflictsOf(err); ok {
				res.Rejected = append(res.Rejected, RejectedOccurrence{
					Occurrence: member,
					Conflicts:  conflicts,
				})
				continue
			}
			// Non-conflict failures abort the remainder; the members already
			// committed stay committed and are reported to the caller.
			return res, err
		}
		res.Committed = append(res.Committed, committed)
	}
	return res, nil
}

// ConflictsOf extracts the conflict list from an error produced by the
// protocol, if it is a conflict rejection.
func ConflictsOf(err error) ([]model.ConflictCandidate, bool) {
	var c conflictCarrier
	if errors.As(err, &c) {
		return c.Response().Conflicts, true
	}
	return nil, false
}

// classify keeps the error taxonomy intact across the store boundary:
// conflicts, blocked deletes and validation failures pass through as
// themselves, everything else becomes a *TransportError.
func classify(op string, err error) error {
	var (
		c conflictCarrier
		d dependencyCarrier
		v *model.ValidationError
	)
	if errors.As(err, &c) || errors.As(err, &d) || errors.As(err, &v) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
