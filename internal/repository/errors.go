// Package repository implements durable storage for the scheduling
// service on top of MySQL.  This file defines the error types shared
// across repositories.  Sentinel values cover simple not-found failures;
// conflicts and blocked deletes carry payload and are therefore typed
// errors that handlers unpack with errors.As.  Keeping the taxonomy
// distinct matters: the UI branches differently on a scheduling conflict,
// a blocked delete and a plain storage failure, so none of them may
// collapse into a generic error.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// ErrOccurrenceNotFound is returned when an occurrence id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrOccurrenceNotFound = errors.New("occurrence not found")

// ErrRuleNotFound is returned when a recurrence rule id does not exist.
var ErrRuleNotFound = errors.New("recurrence rule not found")

// ErrClientNotFound is returned when a client directory lookup misses.
var ErrClientNotFound = errors.New("client not found")

// ConflictError is returned by Create and Update when the authoritative
// check finds overlapping occurrences and the submission did not carry
// the force-override flag.  Nothing has been written when it is returned.
// The conflict list preserves store order, so repeated submissions of the
// same payload report the same conflicts in the same order.
type ConflictError struct {
	Conflicts []model.ConflictCandidate
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict with %d existing occurrence(s)", len(e.Conflicts))
}

// Response returns the wire shape sent to the client instead of a commit.
func (e *ConflictError) Response() model.ConflictResponse {
	return model.ConflictResponse{Conflicts: e.Conflicts}
}

// Dependent identifies a committed record that references an occurrence
// and therefore blocks its deletion.
type Dependent struct {
	Kind  string `json:"kind"`
	ID    uint64 `json:"id"`
	Label string `json:"label"`
}

// DependencyError is returned by Delete when other committed records
// still reference the occurrence.  The occurrence is left untouched; the
// delete can only succeed once the dependents are removed or reassigned.
type DependencyError struct {
	Dependents []Dependent
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("occurrence has %d dependent record(s)", len(e.Dependents))
}

// DependencyBlocked marks this error as a blocked delete for callers that
// classify store errors without importing this package.
func (e *DependencyError) DependencyBlocked() {}
