package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// SessionRepo persists court sessions.  A session always references the
// occurrence that reserves its slot on the calendar; that reference is
// what the delete-time dependency guard in OccurrenceRepo counts.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a session against an existing occurrence.  The
// occurrence must exist; a missing one surfaces as ErrOccurrenceNotFound
// rather than a bare foreign-key failure.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) (model.Session, error) {
	var exists uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM occurrences WHERE id = ?`, s.OccurrenceID).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrOccurrenceNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (occurrence_id, case_number, court, notes) VALUES (?,?,?,?)`,
		s.OccurrenceID, s.CaseNumber, nullableStr(s.Court), nullableStr(s.Notes))
	if err != nil {
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	out := s
	out.ID = uint64(id)
	err = r.db.QueryRowContext(ctx,
		`SELECT created_at FROM sessions WHERE id = ?`, id).Scan(&out.CreatedAt)
	if err != nil {
		return model.Session{}, err
	}
	return out, nil
}

// ListByOccurrence returns the sessions referencing an occurrence,
// oldest first.
func (r *SessionRepo) ListByOccurrence(ctx context.Context, occurrenceID uint64) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, occurrence_id, case_number, court, notes, created_at
		 FROM sessions WHERE occurrence_id = ? ORDER BY id`, occurrenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		var court, notes sql.NullString
		if err := rows.Scan(&s.ID, &s.OccurrenceID, &s.CaseNumber, &court, &notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Court = court.String
		s.Notes = notes.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a session, unblocking the occurrence it referenced.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
