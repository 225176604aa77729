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

type gradeCardService interface {
	GradeCard(ctx context.Context, studentID string) (*models.GradeCard, error)
	Export(ctx context.Context, studentID, format string) (*service.GradeCardExport, error)
}

// GradeCardHandler serves grade cards to registered, paid-up students.
type GradeCardHandler struct {
	service gradeCardService
}

// NewGradeCardHandler constructs the handler.
func NewGradeCardHandler(service gradeCardService) *GradeCardHandler {
	return &GradeCardHandler{service: service}
}

// GradeCard godoc
// @Summary Grade card
// @Description JSON by default; format=csv or format=pdf downloads a file
// @Tags Grades
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/gradecard [get]
func (h *GradeCardHandler) GradeCard(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	var query dto.GradeCardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" || format == "json" {
		card, err := h.service.GradeCard(c.Request.Context(), studentID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, card, nil)
		return
	}

	file, err := h.service.Export(c.Request.Context(), studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
