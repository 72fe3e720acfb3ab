package handlers

import (
	"io"
	"net/http"
	"time"

	"courtside/internal/middleware"
	"courtside/internal/services"
	"courtside/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	live          *services.RedisPublisher // nil when redis is not configured
}

func NewNotificationHandler(notifications *services.NotificationService, live *services.RedisPublisher) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, live: live}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	limit := utils.IntOr(c.Query("limit"), 50)

	items, err := h.notifications.List(c.Request.Context(), userID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "unread": unread})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream relays the user's notifications as server-sent events while the
// client stays connected.
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.live == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{
			"error":   "live_disabled",
			"message": "live notifications are not configured",
		})
		return
	}

	ctx := c.Request.Context()
	sub := h.live.Subscribe(ctx, middleware.CurrentUserID(c))
	defer sub.Close()
	messages := sub.Channel()
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("notification", msg.Payload)
			return true
		case <-keepalive.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}
