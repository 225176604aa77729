package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/pkg/response"
)

type semesterService interface {
	List(ctx context.Context) ([]models.Semester, error)
	Active(ctx context.Context) (*models.Semester, error)
	Activate(ctx context.Context, id string) (*models.Semester, error)
}

// SemesterHandler exposes semesters and the admin rollover.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(service semesterService) *SemesterHandler {
	return &SemesterHandler{service: service}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	semesters, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// Active godoc
// @Summary Active semester
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /semesters/active [get]
func (h *SemesterHandler) Active(c *gin.Context) {
	semester, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Activate godoc
// @Summary Activate semester
// @Description Roll registration over to the given semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/semesters/{id}/activate [post]
func (h *SemesterHandler) Activate(c *gin.Context) {
	semester, err := h.service.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}
