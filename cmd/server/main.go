package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtside/internal/config"
	"courtside/internal/db"
	"courtside/internal/router"
	"courtside/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Initialize Database
	conn := db.Init(cfg)

	var live *services.RedisPublisher
	opts := []services.NotificationOption{
		services.WithMailer(services.NewMailService(cfg.SMTP)),
	}
	if cfg.RedisURL != "" {
		pub, err := services.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		log.Println("Redis connection established, live notifications enabled")
		live = pub
		opts = append(opts, services.WithPublisher(pub))
	}
	notifications := services.NewNotificationService(conn, cfg.NotifyQueueSize, opts...)

	cache, err := services.NewCommentCache(cfg.CommentCacheSize, cfg.CommentCacheTTL)
	if err != nil {
		log.Fatalf("Failed to create comment cache: %v", err)
	}

	r := router.New(router.Deps{
		DB:            conn,
		Auth:          services.NewAuthService(conn),
		Membership:    services.NewMembershipService(conn, notifications, cache),
		Discussions:   services.NewDiscussionService(conn, notifications, cache),
		Notifications: notifications,
		Live:          live,
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Courtside server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	notifications.Close()
	if live != nil {
		live.Close()
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server exited")
}
