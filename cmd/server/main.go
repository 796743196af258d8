// Package main runs the AMA platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/luca-ama/ama/config"
	"github.com/luca-ama/ama/internal/auth"
	"github.com/luca-ama/ama/internal/events"
	"github.com/luca-ama/ama/internal/middleware"
	"github.com/luca-ama/ama/internal/questions"
	"github.com/luca-ama/ama/internal/realtime"
	"github.com/luca-ama/ama/pkg/database"
	"github.com/luca-ama/ama/pkg/redis"
	"github.com/luca-ama/ama/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var redisPubSub *realtime.RedisPubSub
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis disabled, realtime broadcast is single-instance", zap.Error(err))
	} else {
		defer rdb.Close()
		redisPubSub = realtime.NewRedisPubSub(rdb.Client, logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	var hub *realtime.Hub
	if redisPubSub != nil {
		hub = realtime.NewHub(logger, redisPubSub, redisPubSub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo)

	// Questions
	questionRepo := questions.NewRepository(pool)
	questionHandler := questions.NewHandler(questionRepo, hub)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), string(claims.Role), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireModerate(), eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", middleware.RequireModerate(), eventHandler.Update)
		api.GET("/events/:id/stats", middleware.RequireModerate(), eventHandler.Stats)
		api.GET("/events/:id/audience_count", func(c *gin.Context) {
			eventID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				response.BadRequest(c, "invalid event id")
				return
			}
			response.OK(c, gin.H{"count": hub.AudienceCount(eventID)})
		})

		// Questions
		api.GET("/events/:id/questions", questionHandler.ListByEvent)
		api.POST("/events/:id/questions", questionHandler.Create)
		api.POST("/questions/:id/vote", questionHandler.ToggleVote)
		api.PATCH("/questions/:id", middleware.RequireModerate(), questionHandler.Update)
		api.POST("/questions/:id/stage", middleware.RequireModerate(), questionHandler.ToggleStage)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", func(c *gin.Context) {
		realtime.ServeWs(hub, logger, jwtValidate)(c)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
