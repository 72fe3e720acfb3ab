package router

import (
	"net/http"
	"time"

	"courtside/internal/handlers"
	"courtside/internal/middleware"
	"courtside/internal/models"
	"courtside/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Deps struct {
	DB            *gorm.DB
	Auth          *services.AuthService
	Membership    *services.MembershipService
	Discussions   *services.DiscussionService
	Notifications *services.NotificationService
	Live          *services.RedisPublisher // optional

	SessionSecret string
	CORSOrigins   []string
}

// New builds the engine with the shared middleware and every route.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("courtside_session", store))
	r.Use(middleware.LoadUser(d.Auth))

	RegisterRoutes(r, d)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// Credentials cannot be combined with a literal "*".
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Auth)
	eventHandler := handlers.NewEventHandler(d.Membership)
	discussionHandler := handlers.NewDiscussionHandler(d.Discussions)
	commentHandler := handlers.NewCommentHandler(d.Discussions)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications, d.Live)
	healthHandler := handlers.NewHealthHandler(d.DB, nil)
	if d.Live != nil {
		healthHandler = handlers.NewHealthHandler(d.DB, d.Live)
	}

	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/events", eventHandler.List)
	api.GET("/events/:id", eventHandler.Get)
	api.GET("/events/:id/participants", eventHandler.Participants)
	api.GET("/events/:id/comments", commentHandler.List(models.HostEvent))

	api.GET("/discussions", discussionHandler.List)
	api.GET("/discussions/:id", discussionHandler.Get)
	api.GET("/discussions/:id/comments", commentHandler.List(models.HostDiscussion))

	// Protected routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)

		authorized.POST("/events", eventHandler.Create)
		authorized.DELETE("/events/:id", eventHandler.Delete)
		authorized.POST("/events/:id/join", eventHandler.Join)
		authorized.POST("/events/:id/leave", eventHandler.Leave)
		authorized.POST("/events/:id/comments", commentHandler.Create(models.HostEvent))
		authorized.DELETE("/events/:id/comments/:commentId", commentHandler.DeleteUnderHost(models.HostEvent))
		authorized.POST("/events/:id/comments/:commentId/vote", commentHandler.VoteUnderHost(models.HostEvent))

		authorized.POST("/discussions", discussionHandler.Create)
		authorized.DELETE("/discussions/:id", discussionHandler.Delete)
		authorized.POST("/discussions/:id/vote", discussionHandler.Vote)
		authorized.POST("/discussions/:id/comments", commentHandler.Create(models.HostDiscussion))
		authorized.DELETE("/discussions/:id/comments/:commentId", commentHandler.DeleteUnderHost(models.HostDiscussion))
		authorized.POST("/discussions/:id/comments/:commentId/vote", commentHandler.VoteUnderHost(models.HostDiscussion))

		authorized.DELETE("/comments/:commentId", commentHandler.Delete)
		authorized.POST("/comments/:commentId/vote", commentHandler.Vote)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/stream", notificationHandler.Stream)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
	}
}
