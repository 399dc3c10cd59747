// Package router assembles the gin engine and its routes.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	authhandler "mindflow_backend/internal/feature/auth/transport/handler"
	chathandler "mindflow_backend/internal/feature/chat/transport/handler"
	platformhandler "mindflow_backend/internal/platform/http/handler"
	"mindflow_backend/internal/platform/http/middleware"
	jwtmw "mindflow_backend/internal/platform/jwt"
)

// Config holds the router settings taken from the server configuration.
type Config struct {
	APIPrefix   string
	CORSOrigins []string
}

// NewRouter builds the engine. Register and login are rate limited by authLimiter;
// logout, me and chat require a valid access token.
func NewRouter(cfg Config, logger *slog.Logger, verifier jwtmw.Verifier, authLimiter *limiter.Limiter,
	auth *authhandler.AuthHandler, chat *chathandler.ChatHandler, health *platformhandler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// cors.New panics on an empty origin list
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	{
		limited := middleware.RateLimit(authLimiter)
		authGroup.POST("/register", limited, auth.Register)
		authGroup.POST("/login", limited, auth.Login)
		authGroup.POST("/refresh", auth.Refresh)
	}

	protected := api.Group("/")
	protected.Use(jwtmw.AuthRequired(verifier))
	{
		protected.POST("/auth/logout", auth.Logout)
		protected.GET("/auth/me", auth.Me)
		protected.POST("/chat", chat.Chat)
	}

	return r
}
