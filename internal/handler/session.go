package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/repository"
)

// SessionHandler manages court-session records attached to occurrences.
// A session is the record that blocks its occurrence from deletion, so
// creating one here is what arms the referential-integrity guard.
type SessionHandler struct {
	Sessions *repository.SessionRepo
}

func NewSessionHandler(sessions *repository.SessionRepo) *SessionHandler {
	if sessions == nil {
		panic("nil repository passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: sessions}
}

type sessionReq struct {
	CaseNumber string `json:"case_number"`
	Court      string `json:"court,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Create handles POST /v1/occurrences/:id/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
	if _, err := getSecretaryID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	occurrenceID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occurrence id"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.CaseNumber) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "case_number is required"})
	}
	created, err := h.Sessions.Create(c.Request().Context(), model.Session{
		OccurrenceID: occurrenceID,
		CaseNumber:   strings.TrimSpace(req.CaseNumber),
		Court:        strings.TrimSpace(req.Court),
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"session": created})
}

// List handles GET /v1/occurrences/:id/sessions.
func (h *SessionHandler) List(c echo.Context) error {
	occurrenceID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occurrence id"})
	}
	items, err := h.Sessions.ListByOccurrence(c.Request().Context(), occurrenceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sessions"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Delete handles DELETE /v1/sessions/:id.  Removing the session is how
// a blocked occurrence becomes deletable again.
func (h *SessionHandler) Delete(c echo.Context) error {
	if _, err := getSecretaryID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete session"})
	}
	return c.NoContent(http.StatusNoContent)
}
