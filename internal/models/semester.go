package models

import "time"

// Semester scopes registrations. Exactly one semester is active at a time; activating a new one
// supersedes, but never deletes, the registrations of the previous one.
type Semester struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	StartsOn  *time.Time `db:"starts_on" json:"starts_on,omitempty"`
	EndsOn    *time.Time `db:"ends_on" json:"ends_on,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
