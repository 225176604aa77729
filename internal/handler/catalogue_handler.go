package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/dto"
	"github.com/noah-isme/crs-api/internal/middleware"
	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/service"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/response"
)

type catalogueService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]service.CourseView, *models.Pagination, bool, error)
	Get(ctx context.Context, id string) (*service.CourseView, bool, error)
}

// CatalogueHandler exposes the course catalogue.
type CatalogueHandler struct {
	service catalogueService
}

// NewCatalogueHandler constructs the handler.
func NewCatalogueHandler(service catalogueService) *CatalogueHandler {
	return &CatalogueHandler{service: service}
}

// List godoc
// @Summary List courses
// @Tags Catalogue
// @Produce json
// @Param search query string false "Code or name contains"
// @Param available query bool false "Only courses with free seats"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogueHandler) List(c *gin.Context) {
	var query dto.CourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	courses, pagination, cacheHit, err := h.service.List(c.Request.Context(), query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, courses, pagination, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get course
// @Tags Catalogue
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogueHandler) Get(c *gin.Context) {
	course, cacheHit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, course, nil, middleware.ResponseMeta(c))
}
