package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/dto"
	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/response"
)

type notificationLister interface {
	List(ctx context.Context, studentID string, limit int) ([]models.Notification, error)
}

// NotificationHandler lists the messages sent to the current student.
type NotificationHandler struct {
	service notificationLister
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationLister) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary Student notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum entries (default 20, max 100)"
// @Success 200 {object} response.Envelope
// @Router /student/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	studentID, ok := studentFromContext(c)
	if !ok {
		return
	}
	var query dto.NotificationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	notifications, err := h.service.List(c.Request.Context(), studentID, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}
