// Package handler provides HTTP handlers for platform-level endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"mindflow_backend/internal/api"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthHandler serves /healthz.
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler creates a HealthHandler that runs checks on every request.
// Nil checks are ignored.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	active := make(map[string]Checker, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	return &HealthHandler{checks: active}
}

// Health handles the /healthz endpoint.
// It answers 200 "ok" when every dependency responds and 503 "degraded" otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	// health results must never be cached
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	status, results := h.run(c.Request.Context())
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	if c.Request.Method == http.MethodHead {
		c.Status(code)
		return
	}
	c.JSON(code, api.Response{
		Success: code == http.StatusOK,
		Data:    api.HealthData{Status: status, Checks: results},
	})
}

func (h *HealthHandler) run(ctx context.Context) (string, map[string]string) {
	if len(h.checks) == 0 {
		return "ok", nil
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	results := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.checks[name](checkCtx)
		cancel()

		if err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			results[name] = "down"
			status = "degraded"
			continue
		}
		results[name] = "up"
	}
	return status, results
}
