package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"mindflow_backend/internal/api"
	"mindflow_backend/internal/app/di"
	"mindflow_backend/internal/app/router"
	authhandler "mindflow_backend/internal/feature/auth/transport/handler"
	authusecase "mindflow_backend/internal/feature/auth/usecase"
	chathandler "mindflow_backend/internal/feature/chat/transport/handler"
	chatusecase "mindflow_backend/internal/feature/chat/usecase"
	"mindflow_backend/internal/platform/config"
	platformhandler "mindflow_backend/internal/platform/http/handler"
	"mindflow_backend/internal/platform/http/middleware"
	jwtmw "mindflow_backend/internal/platform/jwt"
	"mindflow_backend/internal/platform/password"
	infraredis "mindflow_backend/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server)
	slog.SetDefault(logger)
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	api.UseJSONFieldNames()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	store, err := di.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	// Redis is optional
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Repository
	users := di.NewUserRepository(rdb, cfg.Redis.UserCacheTTL, store.Users)

	// Usecase
	tokens := jwtmw.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authUC := authusecase.NewAuthUsecase(users, password.NewHasher(cfg.Auth.BcryptCost), tokens)

	gen, err := di.NewTextGenerator(ctx, cfg.Gemini)
	if err != nil {
		return err
	}
	chatUC := chatusecase.NewChatUsecase(gen)

	// Handler
	authH := authhandler.NewAuthHandler(authUC, authhandler.CookieConfig{
		Secure:        cfg.Server.IsProduction(),
		AccessMaxAge:  cfg.Auth.AccessTTL,
		RefreshMaxAge: cfg.Auth.RefreshTTL,
	})
	chatH := chathandler.NewChatHandler(chatUC)
	healthH := platformhandler.NewHealthHandler(di.NewHealthChecks(store.Ping, rdb))

	authLimiter, err := middleware.NewLimiter(cfg.Auth.RateLimit, rdb)
	if err != nil {
		return err
	}

	r := router.NewRouter(router.Config{
		APIPrefix:   cfg.Server.APIPrefix,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, logger, tokens, authLimiter, authH, chatH, healthH)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.Server.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// newLogger logs JSON in production and text elsewhere.
func newLogger(s config.ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
