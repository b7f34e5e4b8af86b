package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/schedule"
)

// OccurrenceRepo is the durable occurrence store.  It owns the
// authoritative side of the conflict-resolution protocol: Create and
// Update re-run the same overlap test the composer ran against its cache,
// but inside a transaction that locks the candidate's calendar day, so
// two concurrent submissions cannot both read "no conflict" and both
// commit.  All timestamps are stored and compared in the practice's
// single timezone (the DSN pins the session to UTC).
type OccurrenceRepo struct {
	db *sql.DB
}

// NewOccurrenceRepo returns an OccurrenceRepo bound to the given database.
func NewOccurrenceRepo(db *sql.DB) *OccurrenceRepo { return &OccurrenceRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span repositories.
func (r *OccurrenceRepo) DB() *sql.DB { return r.db }

// occurrenceCols is the canonical column list used by every SELECT in
// this repository, in the order scanOccurrence expects.
const occurrenceCols = `id, calendar_id, client_id, subject_type, title, location, notes,
       starts_at, ends_at, status, recurrence_rule_id, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for scanOccurrence.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOccurrence reads one occurrence row.  client_id and
// recurrence_rule_id are nullable.
func scanOccurrence(s rowScanner) (model.Occurrence, error) {
	var (
		o        model.Occurrence
		clientID sql.NullInt64
		ruleID   sql.NullInt64
		location sql.NullString
		notes    sql.NullString
	)
	err := s.Scan(&o.ID, &o.CalendarID, &clientID, &o.SubjectType, &o.Title, &location, &notes,
		&o.Start, &o.End, &o.Status, &ruleID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Occurrence{}, err
	}
	if clientID.Valid {
		id := uint64(clientID.Int64)
		o.ClientID = &id
	}
	if ruleID.Valid {
		id := uint64(ruleID.Int64)
		o.RecurrenceRuleID = &id
	}
	o.Location = location.String
	o.Notes = notes.String
	return o, nil
}

// List returns the occurrences of one calendar whose start falls inside
// [from, to], ordered by start time then id.  It backs both the calendar
// window endpoint and the composer's advisory cache; cancelled
// occurrences are included so the UI can render them greyed out, and the
// overlap tester skips them on its own.
func (r *OccurrenceRepo) List(ctx context.Context, calendarID uint64, from, to time.Time) ([]model.Occurrence, error) {
	const q = `SELECT ` + occurrenceCols + `
	           FROM occurrences
	           WHERE calendar_id = ? AND starts_at >= ? AND starts_at <= ?
	           ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, q, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Occurrence, 0)
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single occurrence or ErrOccurrenceNotFound.
func (r *OccurrenceRepo) GetByID(ctx context.Context, id uint64) (model.Occurrence, error) {
	const q = `SELECT ` + occurrenceCols + ` FROM occurrences WHERE id = ?`
	o, err := scanOccurrence(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Occurrence{}, ErrOccurrenceNotFound
	}
	return o, err
}

// Create commits a new occurrence.  Unless force is set, it first re-runs
// the overlap test against every occurrence on the candidate's calendar
// day, read under FOR UPDATE; on InnoDB the range predicate takes
// next-key locks over (calendar_id, starts_at), which also blocks
// concurrent inserts into the same day until this transaction ends.  When
// conflicts are found nothing is written and a *ConflictError carrying
// the labelled conflict list is returned.  With force set the overlap
// test is skipped entirely and the write commits unconditionally.
func (r *OccurrenceRepo) Create(ctx context.Context, occ model.Occurrence, force bool) (model.Occurrence, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Occurrence{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if !force {
		if err := r.checkDayTx(ctx, tx, occ, 0); err != nil {
			return model.Occurrence{}, err
		}
	}

	if occ.Status == "" {
		occ.Status = model.StatusPending
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO occurrences
		 (calendar_id, client_id, subject_type, title, location, notes, starts_at, ends_at, status, recurrence_rule_id)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		occ.CalendarID, nullableID(occ.ClientID), occ.SubjectType, occ.Title,
		nullableStr(occ.Location), nullableStr(occ.Notes),
		occ.Start, occ.End, occ.Status, nullableID(occ.RecurrenceRuleID))
	if err != nil {
		return model.Occurrence{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Occurrence{}, err
	}
	out, err := scanOccurrence(tx.QueryRowContext(ctx,
		`SELECT `+occurrenceCols+` FROM occurrences WHERE id = ?`, id))
	if err != nil {
		return model.Occurrence{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Occurrence{}, err
	}
	committed = true
	return out, nil
}

// Update commits an edit to an existing occurrence.  The occurrence's own
// id is excluded from the conflict pool so an edit never collides with
// its prior version.  The target row is locked first so a concurrent
// delete cannot race the edit.  Force semantics match Create.
func (r *OccurrenceRepo) Update(ctx context.Context, id uint64, occ model.Occurrence, force bool) (model.Occurrence, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Occurrence{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var calendarID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT calendar_id FROM occurrences WHERE id = ? FOR UPDATE`, id).Scan(&calendarID)
	if err == sql.ErrNoRows {
		return model.Occurrence{}, ErrOccurrenceNotFound
	}
	if err != nil {
		return model.Occurrence{}, err
	}
	// Edits stay on the occurrence's own calendar.
	occ.CalendarID = calendarID

	if !force {
		if err := r.checkDayTx(ctx, tx, occ, id); err != nil {
			return model.Occurrence{}, err
		}
	}

	if occ.Status == "" {
		occ.Status = model.StatusPending
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE occurrences
		 SET client_id = ?, subject_type = ?, title = ?, location = ?, notes = ?,
		     starts_at = ?, ends_at = ?, status = ?
		 WHERE id = ?`,
		nullableID(occ.ClientID), occ.SubjectType, occ.Title,
		nullableStr(occ.Location), nullableStr(occ.Notes),
		occ.Start, occ.End, occ.Status, id)
	if err != nil {
		return model.Occurrence{}, err
	}
	out, err := scanOccurrence(tx.QueryRowContext(ctx,
		`SELECT `+occurrenceCols+` FROM occurrences WHERE id = ?`, id))
	if err != nil {
		return model.Occurrence{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Occurrence{}, err
	}
	committed = true
	return out, nil
}

// Delete removes an occurrence.  No overlap check runs, but committed
// records that still reference the occurrence block the delete: when any
// exist a *DependencyError naming them is returned and the occurrence is
// left untouched.
func (r *OccurrenceRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM occurrences WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return ErrOccurrenceNotFound
	}
	if err != nil {
		return err
	}

	// Referential-integrity guard: sessions prepared against this
	// occurrence must be removed or reassigned first.
	rows, err := tx.QueryContext(ctx,
		`SELECT id, case_number FROM sessions WHERE occurrence_id = ? ORDER BY id FOR UPDATE`, id)
	if err != nil {
		return err
	}
	var deps []Dependent
	for rows.Next() {
		var d Dependent
		if scanErr := rows.Scan(&d.ID, &d.Label); scanErr != nil {
			rows.Close()
			return scanErr
		}
		d.Kind = "session"
		deps = append(deps, d)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if len(deps) > 0 {
		return &DependencyError{Dependents: deps}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM occurrences WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// checkDayTx runs the authoritative overlap test for candidate inside tx.
// It reads the candidate's whole calendar day under FOR UPDATE, applies
// the shared overlap tester with the given exclusion, labels any
// conflicts from the client directory and returns a *ConflictError when
// the day is not free.
func (r *OccurrenceRepo) checkDayTx(ctx context.Context, tx *sql.Tx, candidate model.Occurrence, excludeID uint64) error {
	dayStart, dayEnd := model.DayBounds(candidate.Start)
	const q = `SELECT ` + occurrenceCols + `
	           FROM occurrences
	           WHERE calendar_id = ? AND starts_at >= ? AND starts_at < ?
	           ORDER BY starts_at, id
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, candidate.CalendarID, dayStart, dayEnd)
	if err != nil {
		return err
	}
	var pool []model.Occurrence
	for rows.Next() {
		o, scanErr := scanOccurrence(rows)
		if scanErr != nil {
			rows.Close()
			return scanErr
		}
		pool = append(pool, o)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	conflicts := schedule.Conflicts(candidate, pool, excludeID)
	if len(conflicts) == 0 {
		return nil
	}
	if err := r.labelConflictsTx(ctx, tx, pool, conflicts); err != nil {
		return err
	}
	return &ConflictError{Conflicts: conflicts}
}

// labelConflictsTx fills DisplayClient from the client directory for each
// conflict that has a linked client.  The directory is display-only here:
// a missing or unlabelled client leaves the occurrence title in place and
// never fails the conflict report.
func (r *OccurrenceRepo) labelConflictsTx(ctx context.Context, tx *sql.Tx, pool []model.Occurrence, conflicts []model.ConflictCandidate) error {
	clientByOcc := make(map[uint64]uint64)
	ids := make([]any, 0, len(conflicts))
	placeholders := make([]string, 0, len(conflicts))
	seen := make(map[uint64]struct{})
	for _, o := range pool {
		if o.ClientID != nil {
			clientByOcc[o.ID] = *o.ClientID
		}
	}
	for _, c := range conflicts {
		cid, ok := clientByOcc[c.OccurrenceID]
		if !ok {
			continue
		}
		if _, dup := seen[cid]; dup {
			continue
		}
		seen[cid] = struct{}{}
		ids = append(ids, cid)
		placeholders = append(placeholders, "?")
	}
	if len(ids) == 0 {
		return nil
	}
	q := `SELECT id, full_name FROM clients WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := tx.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	names := make(map[uint64]string, len(ids))
	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range conflicts {
		if cid, ok := clientByOcc[conflicts[i].OccurrenceID]; ok {
			if name, ok := names[cid]; ok && name != "" {
				conflicts[i].DisplayClient = name
			}
		}
	}
	return nil
}

// nullableID converts an optional id into a driver-friendly value.
func nullableID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

// nullableStr stores empty strings as NULL.
func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
