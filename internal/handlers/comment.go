package handlers

import (
	"net/http"

	"courtside/internal/middleware"
	"courtside/internal/models"
	"courtside/internal/services"

	"github.com/gin-gonic/gin"
)

// CommentHandler serves comment threads. Host-scoped routes are built per
// host kind, so /events/:id/comments and /discussions/:id/comments share code.
type CommentHandler struct {
	discussions *services.DiscussionService
}

func NewCommentHandler(discussions *services.DiscussionService) *CommentHandler {
	return &CommentHandler{discussions: discussions}
}

type commentRequest struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

func hostParam(c *gin.Context, kind models.HostKind) (models.Host, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return models.Host{}, false
	}
	return models.Host{Kind: kind, ID: id}, true
}

func (h *CommentHandler) List(kind models.HostKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, ok := hostParam(c, kind)
		if !ok {
			return
		}
		views, err := h.discussions.ListComments(c.Request.Context(), host, middleware.CurrentUserID(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": views})
	}
}

func (h *CommentHandler) Create(kind models.HostKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, ok := hostParam(c, kind)
		if !ok {
			return
		}
		var req commentRequest
		if !bindJSON(c, &req) {
			return
		}
		view, err := h.discussions.AddComment(c.Request.Context(), host, middleware.CurrentUserID(c), req.Content, req.ParentCommentID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

func (h *CommentHandler) DeleteUnderHost(kind models.HostKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, ok := hostParam(c, kind)
		if !ok {
			return
		}
		commentID, ok := paramID(c, "commentId")
		if !ok {
			return
		}
		res, err := h.discussions.DeleteHostComment(c.Request.Context(), host, commentID, middleware.CurrentUserID(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": len(res.CommentIDs), "votes_deleted": res.Votes})
	}
}

func (h *CommentHandler) VoteUnderHost(kind models.HostKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, ok := hostParam(c, kind)
		if !ok {
			return
		}
		commentID, ok := paramID(c, "commentId")
		if !ok {
			return
		}
		var req voteRequest
		if !bindJSON(c, &req) {
			return
		}
		tally, err := h.discussions.VoteOnHostComment(c.Request.Context(), host, commentID, middleware.CurrentUserID(c), req.Direction)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tally)
	}
}

func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	res, err := h.discussions.DeleteComment(c.Request.Context(), commentID, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": len(res.CommentIDs), "votes_deleted": res.Votes})
}

func (h *CommentHandler) Vote(c *gin.Context) {
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}
	tally, err := h.discussions.VoteOnTarget(c.Request.Context(), services.TargetComment, commentID, middleware.CurrentUserID(c), req.Direction)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}
