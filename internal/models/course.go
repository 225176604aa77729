package models

import "time"

// Course is a catalogue entry. Selections reference courses but never own them.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	Fee           float64   `db:"fee" json:"fee"`
	EnrolledCount int       `db:"enrolled_count" json:"enrolled_count"`
	Capacity      int       `db:"capacity" json:"capacity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasSeat reports whether the course had a free seat when it was read.
func (c Course) HasSeat() bool {
	return c.EnrolledCount < c.Capacity
}

// SeatsLeft returns the number of free seats, never negative.
func (c Course) SeatsLeft() int {
	if c.EnrolledCount >= c.Capacity {
		return 0
	}
	return c.Capacity - c.EnrolledCount
}

// CourseFilter provides filters for listing the catalogue.
type CourseFilter struct {
	Search        string
	AvailableOnly bool
	Page          int
	PageSize      int
}
