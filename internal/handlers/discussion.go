package handlers

import (
	"net/http"

	"courtside/internal/middleware"
	"courtside/internal/services"

	"github.com/gin-gonic/gin"
)

type DiscussionHandler struct {
	discussions *services.DiscussionService
}

func NewDiscussionHandler(discussions *services.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions}
}

func (h *DiscussionHandler) Create(c *gin.Context) {
	var in services.CreateDiscussionInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.discussions.CreateDiscussion(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DiscussionHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	items, total, err := h.discussions.ListDiscussions(c.Request.Context(), services.ListDiscussionsQuery{
		Category: c.Query("category"),
		Sort:     c.DefaultQuery("sort", "new"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page})
}

func (h *DiscussionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.discussions.GetDiscussion(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DiscussionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.discussions.DeleteDiscussion(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DiscussionHandler) Vote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}
	tally, err := h.discussions.VoteOnTarget(c.Request.Context(), services.TargetDiscussion, id, middleware.CurrentUserID(c), req.Direction)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}
