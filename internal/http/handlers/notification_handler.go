// README: Notification inbox endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitebay/internal/http/middleware"
	"bitebay/internal/types"
)

type NotificationHandler struct {
	notifications Notifications
}

func NewNotificationHandler(notifications Notifications) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	uid := types.ID(middleware.CallerUID(c))
	unread := c.Query("unread") == "true"
	list, err := h.notifications.List(c.Request.Context(), uid, unread)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if !requireID(c, "notification id", id) {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), types.ID(middleware.CallerUID(c)), types.ID(id)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
