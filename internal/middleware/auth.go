package middleware

import (
	"log"
	"net/http"

	"courtside/internal/models"
	"courtside/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"
const SessionUserKey = "user_id"

// AuthRequired rejects requests without a logged-in user
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "login required",
			})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)
		if ok && userID != 0 {
			user, err := auth.Get(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, &user)
			case services.IsKind(err, services.KindNotFound):
				// Stale cookie for a deleted user.
				session.Delete(SessionUserKey)
				_ = session.Save()
			default:
				log.Printf("[%s] load session user %d: %v", RequestIDFrom(c), userID, err)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the logged-in user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentUserID returns 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}
