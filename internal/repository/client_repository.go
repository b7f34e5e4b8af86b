package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// ClientRepo reads the practice's client directory.  The scheduling
// service treats the directory as display-only: names label conflict
// candidates and calendar entries, nothing more.  Full client management
// belongs to the administration application.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo returns a ClientRepo bound to the given database.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

// GetByID returns a client or ErrClientNotFound.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	var c model.Client
	var phone, caseNo sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, phone, case_number, created_at FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.FullName, &phone, &caseNo, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Client{}, ErrClientNotFound
	}
	if err != nil {
		return model.Client{}, err
	}
	c.Phone = phone.String
	c.CaseNumber = caseNo.String
	return c, nil
}

// List returns the whole directory ordered by name, for composer
// dropdowns.
func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, phone, case_number, created_at FROM clients ORDER BY full_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Client, 0)
	for rows.Next() {
		var c model.Client
		var phone, caseNo sql.NullString
		if err := rows.Scan(&c.ID, &c.FullName, &phone, &caseNo, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Phone = phone.String
		c.CaseNumber = caseNo.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
