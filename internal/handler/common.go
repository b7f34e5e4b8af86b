package handler

import (
	"errors"  // errors provides sentinel values used in getSecretaryID
	"net/http"
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/repository"
	"github.com/iliyamo/law-office-scheduling/internal/scheduler"
)

// getSecretaryID extracts the secretary_id from echo.Context and converts it to uint64
func getSecretaryID(c echo.Context) (uint64, error) {
	v := c.Get("secretary_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid secretary_id in context")
}

// parseIDParam parses a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// respondMutationError translates a coordinator error into the HTTP
// contract.  Validation failures are 422, conflict rejections and
// blocked deletes are 409 with their full payloads, missing rows are
// 404, everything else (including transport failures) is 500.  The
// distinction matters to clients: a 409 conflict may be resubmitted
// with force_override, a 500 must not be.
func respondMutationError(c echo.Context, err error) error {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "validation_failed",
			"field":  vErr.Field,
			"reason": vErr.Reason,
		})
	}
	if conflicts, ok := scheduler.ConflictsOf(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "schedule_conflict",
			"conflicts": conflicts,
		})
	}
	var dErr *repository.DependencyError
	if errors.As(err, &dErr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      "dependency_blocked",
			"dependents": dErr.Dependents,
		})
	}
	if errors.Is(err, repository.ErrOccurrenceNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
}
