package handlers

import (
	"net/http"

	"courtside/internal/middleware"
	"courtside/internal/services"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	membership *services.MembershipService
}

func NewEventHandler(membership *services.MembershipService) *EventHandler {
	return &EventHandler{membership: membership}
}

func (h *EventHandler) Create(c *gin.Context) {
	var in services.CreateEventInput
	if !bindJSON(c, &in) {
		return
	}
	event, err := h.membership.CreateEvent(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	events, total, err := h.membership.ListEvents(c.Request.Context(), services.ListEventsQuery{
		Sport:    c.Query("sport"),
		Upcoming: c.Query("upcoming") == "true",
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": events, "total": total, "page": page})
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	event, err := h.membership.GetEvent(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.membership.DeleteEvent(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) Join(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.membership.JoinEvent(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          res.Participant.Status,
		"current_players": res.Event.CurrentPlayers,
		"max_players":     res.Event.MaxPlayers,
	})
}

func (h *EventHandler) Leave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.membership.LeaveEvent(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	body := gin.H{"current_players": res.Event.CurrentPlayers}
	if res.Promoted != nil {
		body["promoted_user_id"] = res.Promoted.UserID
	}
	c.JSON(http.StatusOK, body)
}

func (h *EventHandler) Participants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.membership.ListParticipants(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}
