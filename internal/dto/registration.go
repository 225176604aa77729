package dto

import (
	"strings"

	"github.com/noah-isme/crs-api/internal/models"
)

// AddSelectionRequest is the body of POST /student/selections. Tier defaults to primary.
type AddSelectionRequest struct {
	CourseID string `json:"course_id" binding:"required"`
	Tier     string `json:"tier" binding:"omitempty,oneof=primary secondary PRIMARY SECONDARY"`
}

// Primary reports whether the selection targets the primary tier.
func (r AddSelectionRequest) Primary() bool {
	return r.Tier == "" || models.Tier(strings.ToLower(r.Tier)) == models.TierPrimary
}

// SelectionQuery filters GET /student/selections.
type SelectionQuery struct {
	Registered bool `form:"registered"`
}

// PayFeeRequest is the body of POST /student/fee/payments. A zero amount pays the full fee.
type PayFeeRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// GradeCardQuery selects the grade card rendering.
type GradeCardQuery struct {
	Format string `form:"format"`
}

// NotificationQuery bounds GET /student/notifications.
type NotificationQuery struct {
	Limit int `form:"limit"`
}
