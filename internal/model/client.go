package model

import "time"

// Client is an entry in the practice's client directory.  The scheduling
// core only ever reads the full name, to label conflict candidates; all
// other client handling lives in the administration application.
type Client struct {
	ID         uint64    `json:"id"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone,omitempty"`
	CaseNumber string    `json:"case_number,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}
