package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/queue"
	"github.com/iliyamo/law-office-scheduling/internal/repository"
	"github.com/iliyamo/law-office-scheduling/internal/scheduler"
	queue_publisher "github.com/iliyamo/law-office-scheduling/internal/service"
)

// OccurrenceHandler exposes the calendar over HTTP.  Every mutation is
// routed through the coordinator so the conflict protocol cannot be
// bypassed; reads go straight to the repository.  Methods assume JWT
// authentication has already run and may return 401 only when the
// secretary ID cannot be extracted from the context.
type OccurrenceHandler struct {
	Sched       *scheduler.Scheduler
	Occurrences *repository.OccurrenceRepo
	Clients     *repository.ClientRepo
}

// NewOccurrenceHandler constructs an OccurrenceHandler.  All
// dependencies must be non-nil.
func NewOccurrenceHandler(sched *scheduler.Scheduler, occ *repository.OccurrenceRepo, clients *repository.ClientRepo) *OccurrenceHandler {
	if sched == nil || occ == nil || clients == nil {
		panic("nil dependency passed to NewOccurrenceHandler")
	}
	return &OccurrenceHandler{Sched: sched, Occurrences: occ, Clients: clients}
}

// ----- DTOs -----

type recurrenceReq struct {
	Frequency string `json:"frequency"`          // none | daily | weekly | monthly
	EndDate   string `json:"end_date,omitempty"` // YYYY-MM-DD, inclusive
}

type occurrenceReq struct {
	ClientID      *uint64        `json:"client_id,omitempty"`
	SubjectType   string         `json:"subject_type"`
	Title         string         `json:"title"`
	Location      string         `json:"location,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Start         string         `json:"start"` // RFC3339
	End           string         `json:"end"`   // RFC3339
	Status        string         `json:"status,omitempty"`
	ForceOverride bool           `json:"force_override,omitempty"`
	Recurrence    *recurrenceReq `json:"recurrence,omitempty"`
}

type checkReq struct {
	occurrenceReq
	ExcludeID uint64 `json:"exclude_id,omitempty"`
}

// toOccurrence maps the request body onto the domain model.  Malformed
// timestamps come back as validation errors so the composer can show
// them inline like any other field problem.
func (req *occurrenceReq) toOccurrence(calendarID uint64) (model.Occurrence, error) {
	occ := model.Occurrence{
		CalendarID:  calendarID,
		ClientID:    req.ClientID,
		SubjectType: strings.TrimSpace(strings.ToLower(req.SubjectType)),
		Title:       strings.TrimSpace(req.Title),
		Location:    strings.TrimSpace(req.Location),
		Notes:       req.Notes,
		Status:      strings.TrimSpace(strings.ToLower(req.Status)),
	}
	if occ.Status == "" {
		occ.Status = model.StatusPending
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return occ, &model.ValidationError{Field: "start", Reason: "must be an RFC3339 timestamp"}
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return occ, &model.ValidationError{Field: "end", Reason: "must be an RFC3339 timestamp"}
	}
	occ.Start = start
	occ.End = end
	return occ, nil
}

// toOccurrenceUpdate maps an edit body onto the domain model.  The
// calendar is pinned to the stored row, and an absent status keeps the
// stored one: an edit that only moves a confirmed booking must not
// quietly demote it to pending.
func (req *occurrenceReq) toOccurrenceUpdate(existing model.Occurrence) (model.Occurrence, error) {
	occ, err := req.toOccurrence(existing.CalendarID)
	if err != nil {
		return occ, err
	}
	if strings.TrimSpace(req.Status) == "" {
		occ.Status = existing.Status
	}
	return occ, nil
}

// toRule maps the optional recurrence block onto a rule.  The end date
// is a plain calendar date; it is anchored in the occurrence's location
// so the inclusive-end semantics line up with the series timezone.
func (req *recurrenceReq) toRule(anchor model.Occurrence) (model.RecurrenceRule, error) {
	rule := model.RecurrenceRule{Frequency: strings.TrimSpace(strings.ToLower(req.Frequency))}
	if rule.Frequency == "" {
		rule.Frequency = model.FreqNone
	}
	if rule.Frequency != model.FreqNone {
		if strings.TrimSpace(req.EndDate) == "" {
			return rule, &model.ValidationError{Field: "end_date", Reason: "required for a repeating rule"}
		}
		end, err := time.ParseInLocation("2006-01-02", req.EndDate, anchor.Start.Location())
		if err != nil {
			return rule, &model.ValidationError{Field: "end_date", Reason: "must be a YYYY-MM-DD date"}
		}
		rule.EndDate = end
	}
	return rule, nil
}

// ListWindow handles GET /v1/calendars/:id/occurrences?from=...&to=...
// It returns every occurrence of the calendar whose start falls inside
// [from, to), ordered by start then id.  This is the window the
// composer caches and later feeds to the advisory check; the route sits
// behind the response cache, so a hit may be a few seconds stale.
func (h *OccurrenceHandler) ListWindow(c echo.Context) error {
	calendarID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid calendar id"})
	}
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be an RFC3339 timestamp"})
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be an RFC3339 timestamp"})
	}
	if !to.After(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be after from"})
	}
	items, err := h.Occurrences.List(c.Request().Context(), calendarID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occurrences"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Check handles POST /v1/calendars/:id/occurrences/check.  It runs the
// advisory phase only: the candidate is tested against the day's
// occurrences without taking any locks, and the result is returned as a
// plain conflict list.  A clean answer is a hint, not a reservation;
// nothing is written and the authoritative check still runs on submit.
func (h *OccurrenceHandler) Check(c echo.Context) error {
	calendarID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid calendar id"})
	}
	var req checkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	candidate, err := req.toOccurrence(calendarID)
	if err != nil {
		return respondMutationError(c, err)
	}
	dayStart, dayEnd := model.DayBounds(candidate.Start)
	pool, err := h.Occurrences.List(c.Request().Context(), calendarID, dayStart, dayEnd)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occurrences"})
	}
	conflicts, err := h.Sched.CheckLocal(candidate, pool, req.ExcludeID)
	if err != nil {
		return respondMutationError(c, err)
	}
	if conflicts == nil {
		conflicts = []model.ConflictCandidate{}
	}
	return c.JSON(http.StatusOK, model.ConflictResponse{Conflicts: conflicts})
}

// Create handles POST /v1/calendars/:id/occurrences.  Without a
// recurrence block (or with frequency "none") it submits a single
// candidate; with a repeating rule it expands and commits the series
// best-effort.  A 409 carries the conflicts that blocked the write and
// may be answered by resubmitting the identical payload with
// force_override set.
func (h *OccurrenceHandler) Create(c echo.Context) error {
	secretaryID, err := getSecretaryID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	calendarID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid calendar id"})
	}
	var req occurrenceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	candidate, err := req.toOccurrence(calendarID)
	if err != nil {
		return respondMutationError(c, err)
	}
	ctx := c.Request().Context()

	if req.Recurrence != nil && strings.TrimSpace(strings.ToLower(req.Recurrence.Frequency)) != model.FreqNone {
		rule, err := req.Recurrence.toRule(candidate)
		if err != nil {
			return respondMutationError(c, err)
		}
		res, err := h.Sched.CreateSeries(ctx, rule, candidate, req.ForceOverride)
		if err != nil {
			return respondMutationError(c, err)
		}
		for _, occ := range res.Committed {
			h.publishCommitted(ctx, occ, secretaryID, req.ForceOverride)
		}
		return c.JSON(http.StatusCreated, res)
	}

	committed, err := h.Sched.Submit(ctx, candidate, 0, req.ForceOverride)
	if err != nil {
		return respondMutationError(c, err)
	}
	h.publishCommitted(ctx, committed, secretaryID, req.ForceOverride)
	return c.JSON(http.StatusCreated, echo.Map{"occurrence": committed})
}

// Update handles PUT /v1/occurrences/:id.  The edited occurrence is
// resubmitted through the full protocol with itself excluded from the
// comparison pool, so an appointment can always be nudged within its
// own original slot.  The calendar cannot be changed on edit; the
// stored calendar_id wins.
func (h *OccurrenceHandler) Update(c echo.Context) error {
	secretaryID, err := getSecretaryID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occurrence id"})
	}
	var req occurrenceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	existing, err := h.Occurrences.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occurrence"})
	}
	candidate, err := req.toOccurrenceUpdate(existing)
	if err != nil {
		return respondMutationError(c, err)
	}
	ctx := c.Request().Context()
	committed, err := h.Sched.Submit(ctx, candidate, id, req.ForceOverride)
	if err != nil {
		return respondMutationError(c, err)
	}
	h.publishCommitted(ctx, committed, secretaryID, req.ForceOverride)
	return c.JSON(http.StatusOK, echo.Map{"occurrence": committed})
}

// Delete handles DELETE /v1/occurrences/:id.  The store refuses to
// remove an occurrence that court sessions still reference; that
// rejection surfaces as 409 with the blocking records listed.
func (h *OccurrenceHandler) Delete(c echo.Context) error {
	secretaryID, err := getSecretaryID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occurrence id"})
	}
	ctx := c.Request().Context()
	existing, err := h.Occurrences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occurrence"})
	}
	if err := h.Sched.Delete(ctx, id); err != nil {
		return respondMutationError(c, err)
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishOccurrenceCancelled(pubCtx, queue.OccurrenceCancelledEvent{
			OccurrenceID: existing.ID,
			CalendarID:   existing.CalendarID,
			SecretaryID:  secretaryID,
			CancelledAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}()
	return c.NoContent(http.StatusNoContent)
}

// publishCommitted emits the lifecycle event for one committed
// occurrence.  Publishing is fire-and-forget: the broker feeds
// reminders and digests, and a broker outage must never fail a booking
// that the store already committed.
func (h *OccurrenceHandler) publishCommitted(ctx context.Context, occ model.Occurrence, secretaryID uint64, overridden bool) {
	clientName := ""
	if occ.ClientID != nil {
		if cl, err := h.Clients.GetByID(ctx, *occ.ClientID); err == nil {
			clientName = cl.FullName
		}
	}
	ev := queue.OccurrenceCommittedEvent{
		OccurrenceID: occ.ID,
		CalendarID:   occ.CalendarID,
		SecretaryID:  secretaryID,
		SubjectType:  occ.SubjectType,
		Title:        occ.Title,
		ClientName:   clientName,
		Start:        occ.Start.Format(time.RFC3339),
		End:          occ.End.Format(time.RFC3339),
		Overridden:   overridden,
		CommittedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishOccurrenceCommitted(pubCtx, ev)
	}()
}
