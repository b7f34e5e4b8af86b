package schedule

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// maxSeriesOccurrences caps how many occurrences a single rule may
// generate.  A daily rule spanning two years stays well under it; the cap
// exists so a mistyped end date cannot produce an unbounded series.
const maxSeriesOccurrences = 1000

// ErrRuleIneffective is returned by Expand when the rule's end date falls
// before the anchor's own date.  The anchor alone is still returned so
// the caller can show the user what the rule would (not) produce, but a
// rule that never repeats is almost certainly a data-entry mistake and
// should be surfaced rather than silently committed.
var ErrRuleIneffective = errors.New("recurrence rule ends before the anchor occurrence")

// Expand turns a recurrence rule and its anchor occurrence into the
// finite, ordered list of concrete occurrences the rule describes.
//
// The first element is always the anchor itself, unchanged.  Every
// subsequent element is a copy of the anchor with ID 0, the rule's id
// attached (when the rule has one), and the start date advanced by the
// rule's step; time-of-day and duration are inherited from the anchor
// exactly.  Generation stops once a start date would pass the rule's
// inclusive end date.
//
// Monthly stepping preserves the anchor's day-of-month and clamps to the
// last day of shorter months, so an anchor on the 31st lands on Feb 28
// (29 in leap years) rather than skipping February.
//
// Expand is a pure function: calling it twice with the same inputs yields
// identical slices.
func Expand(rule model.RecurrenceRule, anchor model.Occurrence) ([]model.Occurrence, error) {
	if err := anchor.Validate(); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if rule.Frequency == model.FreqNone {
		return []model.Occurrence{anchor}, nil
	}

	loc := anchor.Start.Location()
	// The end date bounds start *dates*, inclusive: any occurrence starting
	// on that day still belongs to the series.
	until := time.Date(rule.EndDate.Year(), rule.EndDate.Month(), rule.EndDate.Day(),
		23, 59, 59, 0, loc)
	if until.Before(anchor.Start) {
		return []model.Occurrence{anchor}, ErrRuleIneffective
	}

	opt := rrule.ROption{
		Dtstart: anchor.Start,
		Until:   until,
	}
	switch rule.Frequency {
	case model.FreqDaily:
		opt.Freq = rrule.DAILY
	case model.FreqWeekly:
		opt.Freq = rrule.WEEKLY
	case model.FreqMonthly:
		opt.Freq = rrule.MONTHLY
		if day := anchor.Start.Day(); day > 28 {
			// Clamp to the last day of shorter months: offer every day-of-month
			// from 28 up to the anchor's and keep only the latest one present.
			for d := 28; d <= day; d++ {
				opt.Bymonthday = append(opt.Bymonthday, d)
			}
			opt.Bysetpos = []int{-1}
		}
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	starts := r.All()
	if len(starts) > maxSeriesOccurrences {
		return nil, &model.ValidationError{Field: "end_date", Reason: "rule generates too many occurrences"}
	}

	duration := anchor.End.Sub(anchor.Start)
	out := make([]model.Occurrence, 0, len(starts))
	out = append(out, anchor)
	for _, s := range starts {
		if s.Equal(anchor.Start) {
			continue
		}
		occ := anchor
		occ.ID = 0
		occ.Start = s
		occ.End = s.Add(duration)
		if rule.ID != 0 {
			ruleID := rule.ID
			occ.RecurrenceRuleID = &ruleID
		}
		out = append(out, occ)
	}
	return out, nil
}
