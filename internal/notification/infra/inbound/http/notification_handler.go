package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/eventshop/internal/notification/application"
	"github.com/davicafu/eventshop/pkg/utils"
)

type NotificationHandler struct {
	service *application.NotificationService
}

func NewNotificationHandler(service *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, err := h.service.ListNotifications(c.Request.Context(), limit, offset)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	utils.SendSuccess(c, stdhttp.StatusOK, notifications)
}

func RegisterNotificationRoutes(r *gin.Engine, handler *NotificationHandler) {
	r.GET("/notifications", handler.ListNotifications)
}
