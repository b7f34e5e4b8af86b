package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/law-office-scheduling/internal/model"
	"github.com/iliyamo/law-office-scheduling/internal/utils"
)

// SecretaryRepo manages staff accounts in the 'secretaries' table.
type SecretaryRepo struct{ DB *sql.DB }

func NewSecretaryRepo(db *sql.DB) *SecretaryRepo { return &SecretaryRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a secretary account and returns its ID.
func (r *SecretaryRepo) Create(ctx context.Context, email, fullName, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO secretaries (email, full_name, password_hash, role) VALUES (?,?,?,?)",
		email, fullName, hash, role)
	if err != nil {
		// 1062 = duplicate key on the unique email index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a secretary by normalized email.
func (r *SecretaryRepo) GetByEmail(ctx context.Context, email string) (model.Secretary, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var s model.Secretary
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,full_name,password_hash,role,is_active,created_at,updated_at FROM secretaries WHERE email=? LIMIT 1",
		email).Scan(&s.ID, &s.Email, &s.FullName, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetByID fetches a secretary by id.
func (r *SecretaryRepo) GetByID(ctx context.Context, id uint64) (model.Secretary, error) {
	var s model.Secretary
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,full_name,password_hash,role,is_active,created_at,updated_at FROM secretaries WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Email, &s.FullName, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
