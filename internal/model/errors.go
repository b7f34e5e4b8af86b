package model

import "fmt"

// ValidationError reports a field-level problem with a submitted value.
// It is raised before any conflict check runs, is always locally
// recoverable, and is never conflated with a scheduling conflict.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
