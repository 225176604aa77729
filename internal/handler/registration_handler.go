package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/dto"
	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/service"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/response"
)

type registrationService interface {
	AddSelection(ctx context.Context, studentID string, req service.AddSelectionRequest) (*models.SelectionDetail, error)
	DropSelection(ctx context.Context, studentID, courseID string) error
	ListSelections(ctx context.Context, studentID string, registeredOnly bool) ([]models.SelectionDetail, error)
	Registration(ctx context.Context, studentID string) (*service.RegistrationSummary, error)
	Submit(ctx context.Context, studentID string) (*service.AllocationResult, error)
	PendingFee(ctx context.Context, studentID string) (*service.FeeStatus, error)
	PayFee(ctx context.Context, studentID string, req service.PayFeeRequest) (*service.PaymentResult, error)
}

// RegistrationHandler exposes the student's course selection, submission and fee workflow.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(service registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// AddSelection godoc
// @Summary Select a course
// @Description Add a candidate course to the current student's registration for the active semester
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.AddSelectionRequest true "Selection payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/selections [post]
func (h *RegistrationHandler) AddSelection(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	var req dto.AddSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	detail, err := h.service.AddSelection(c.Request.Context(), studentID, service.AddSelectionRequest{
		CourseID: strings.TrimSpace(req.CourseID),
		Primary:  req.Primary(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// DropSelection godoc
// @Summary Drop a selected course
// @Tags Registration
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/selections/{courseId} [delete]
func (h *RegistrationHandler) DropSelection(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DropSelection(c.Request.Context(), studentID, c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSelections godoc
// @Summary List selections
// @Description Candidate selections, or the allotted courses once registered=true
// @Tags Registration
// @Produce json
// @Param registered query bool false "Only allotted courses"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/selections [get]
func (h *RegistrationHandler) ListSelections(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	var query dto.SelectionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	selections, err := h.service.ListSelections(c.Request.Context(), studentID, query.Registered)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selections, nil)
}

// Registration godoc
// @Summary Registration status
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/registration [get]
func (h *RegistrationHandler) Registration(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	summary, err := h.service.Registration(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Submit godoc
// @Summary Submit registration
// @Description Allot seats to the selected courses and fix the semester fee
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /student/registration/submit [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// PendingFee godoc
// @Summary Pending fee
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/fee [get]
func (h *RegistrationHandler) PendingFee(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	status, err := h.service.PendingFee(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// PayFee godoc
// @Summary Pay the semester fee
// @Description Settles the fee of a submitted registration. paid=false means nothing was recorded.
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.PayFeeRequest false "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/fee/payments [post]
func (h *RegistrationHandler) PayFee(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	var req dto.PayFeeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
			return
		}
	}
	result, err := h.service.PayFee(c.Request.Context(), studentID, service.PayFeeRequest{
		Amount: req.Amount,
		Method: models.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method))),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
