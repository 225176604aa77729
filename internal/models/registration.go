package models

import "time"

// RegistrationState captures the irreversible registration lifecycle.
type RegistrationState string

const (
	RegistrationBuilding  RegistrationState = "BUILDING"
	RegistrationSubmitted RegistrationState = "SUBMITTED"
	RegistrationFeePaid   RegistrationState = "FEE_PAID"
)

// Tier is the priority class of a selection.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
)

// TierOf maps the persisted primary flag to its tier.
func TierOf(primary bool) Tier {
	if primary {
		return TierPrimary
	}
	return TierSecondary
}

// Registration is the per-student, per-semester ledger row.
type Registration struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	SemesterID  string     `db:"semester_id" json:"semester_id"`
	Submitted   bool       `db:"submitted" json:"submitted"`
	FeePaid     bool       `db:"fee_paid" json:"fee_paid"`
	TotalFee    float64    `db:"total_fee" json:"total_fee"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// State derives the lifecycle state from the persisted flags.
func (r Registration) State() RegistrationState {
	switch {
	case r.Submitted && r.FeePaid:
		return RegistrationFeePaid
	case r.Submitted:
		return RegistrationSubmitted
	default:
		return RegistrationBuilding
	}
}

// Selection is a candidate course recorded against a registration.
type Selection struct {
	ID             string    `db:"id" json:"id"`
	RegistrationID string    `db:"registration_id" json:"registration_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	IsPrimary      bool      `db:"is_primary" json:"is_primary"`
	Allotted       bool      `db:"allotted" json:"allotted"`
	Seq            int       `db:"seq" json:"seq"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Tier reports the selection's priority class.
func (s Selection) Tier() Tier {
	return TierOf(s.IsPrimary)
}

// SelectionDetail joins a selection with the catalogue fields needed to render it.
type SelectionDetail struct {
	Selection
	CourseCode string  `db:"course_code" json:"course_code"`
	CourseName string  `db:"course_name" json:"course_name"`
	Fee        float64 `db:"fee" json:"fee"`
}

// PaymentMethod enumerates accepted fee payment instruments.
type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "CARD"
	PaymentNetBank PaymentMethod = "NETBANKING"
	PaymentScholar PaymentMethod = "SCHOLARSHIP"
	PaymentCash    PaymentMethod = "CASH"
	PaymentOffline PaymentMethod = "OFFLINE"
)

// Payment records a successful fee settlement.
type Payment struct {
	ID             string        `db:"id" json:"id"`
	RegistrationID string        `db:"registration_id" json:"registration_id"`
	Amount         float64       `db:"amount" json:"amount"`
	Method         PaymentMethod `db:"method" json:"method"`
	Reference      string        `db:"reference" json:"reference"`
	PaidAt         time.Time     `db:"paid_at" json:"paid_at"`
}
