package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"lessonhub/internal/auth"
	"lessonhub/internal/config"
	"lessonhub/internal/middleware"
	"lessonhub/pkg/logger"
)

func newRouter(cfg config.Config, db *gorm.DB, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.AttachTraceContext())
	r.Use(middleware.CORS(cfg.HTTP.CORSOrigins))
	r.Use(middleware.RequestLogger(log))

	secret := []byte(cfg.Auth.JWTSecret)
	threshold := cfg.Tracking.ViewedThresholdPercent

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")

	// PUBLIC
	api.POST("/users", func(c *gin.Context) { handleRegister(c, db, log) })
	api.POST("/auth/login", func(c *gin.Context) { handleLogin(c, db, log, secret, cfg.Auth.TokenTTL) })
	api.GET("/product-stats", func(c *gin.Context) { handleProductStats(c, db, log) })

	// PROTECTED
	authed := api.Group("/")
	authed.Use(auth.RequireJWT(secret))
	authed.GET("/users", func(c *gin.Context) { handleListUsers(c, db, log) })
	authed.GET("/users/me", func(c *gin.Context) { handleMe(c, db, log) })
	authed.GET("/users/:id", func(c *gin.Context) { handleGetUser(c, db, log) })
	authed.GET("/lesson-status", func(c *gin.Context) { handleLessonStatus(c, db, log) })
	authed.POST("/subscribe", func(c *gin.Context) { handleSubscribe(c, db, log, threshold) })

	return r
}
