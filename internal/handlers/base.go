package handlers

import (
	"errors"
	"log"
	"net/http"

	"courtside/internal/middleware"
	"courtside/internal/services"
	"courtside/internal/utils"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[services.ErrorKind]int{
	services.KindNotFound:        http.StatusNotFound,
	services.KindConflict:        http.StatusConflict,
	services.KindForbidden:       http.StatusForbidden,
	services.KindInvalidArgument: http.StatusBadRequest,
	services.KindUnauthorized:    http.StatusUnauthorized,
	services.KindStoreFailure:    http.StatusServiceUnavailable,
}

// RespondError writes err as {"error", "message", "host"}. Store failures are
// logged and reported as a generic retryable error.
func RespondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	var e *services.Error
	if kind == services.KindStoreFailure || !errors.As(err, &e) {
		log.Printf("[%s] %s %s: %v", middleware.RequestIDFrom(c), c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(status, gin.H{
			"error":   "store_failure",
			"message": "temporary failure, please try again",
		})
		return
	}

	body := gin.H{"error": e.Code, "message": e.Message}
	if e.Host != nil {
		body["host"] = e.Host
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code, "message": message})
}

// paramID parses a positive id path parameter, writing a 400 on failure.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		badRequest(c, "invalid_id", err.Error())
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, "invalid_body", err.Error())
		return false
	}
	return true
}

func pageParams(c *gin.Context) (page, size int) {
	return utils.IntOr(c.Query("page"), 1), utils.IntOr(c.Query("page_size"), 20)
}

type voteRequest struct {
	Direction string `json:"direction" binding:"required"`
}
