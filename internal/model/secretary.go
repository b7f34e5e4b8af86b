package model

import "time"

// Secretary roles.  Admins manage accounts; secretaries operate the
// shared calendar day to day.  Both may book, edit and delete
// occurrences.
const (
	RoleAdmin     = "ADMIN"
	RoleSecretary = "SECRETARY"
)

// Secretary is a staff account that signs in to operate the calendar.
type Secretary struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}
