package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

func editBody() occurrenceReq {
	return occurrenceReq{
		SubjectType: model.SubjectConsultation,
		Title:       "intake meeting",
		Start:       "2024-05-06T09:30:00Z",
		End:         "2024-05-06T10:30:00Z",
	}
}

func storedOccurrence() model.Occurrence {
	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	return model.Occurrence{
		ID:          7,
		CalendarID:  3,
		SubjectType: model.SubjectConsultation,
		Title:       "intake meeting",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      model.StatusConfirmed,
	}
}

func TestToOccurrenceDefaultsStatusPending(t *testing.T) {
	req := editBody()
	occ, err := req.toOccurrence(1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, occ.Status)
}

func TestToOccurrenceUpdateKeepsStoredStatus(t *testing.T) {
	existing := storedOccurrence()

	// an edit that only moves the booking must not demote it to pending
	req := editBody()
	occ, err := req.toOccurrenceUpdate(existing)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, occ.Status)
	assert.Equal(t, existing.CalendarID, occ.CalendarID)
}

func TestToOccurrenceUpdateExplicitStatusWins(t *testing.T) {
	req := editBody()
	req.Status = model.StatusCancelled

	occ, err := req.toOccurrenceUpdate(storedOccurrence())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, occ.Status)
}

func TestToOccurrenceRejectsMalformedTimestamps(t *testing.T) {
	req := editBody()
	req.Start = "tomorrow at nine"

	_, err := req.toOccurrence(1)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "start", vErr.Field)
}
