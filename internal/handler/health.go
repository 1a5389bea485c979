package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the store ping
	"net/http" // net/http provides status codes and response helpers
	"time"     // time sets the ping deadline

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"go.uber.org/zap"             // zap logs an unreachable store
)

// Health is the health-check endpoint used by load balancers and monitoring
// systems. It pings the document store and returns a plain text "ok" with
// 200, or 503 when the store does not answer within two seconds.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Warn("health check: store unreachable", zap.Error(err))
		return c.String(http.StatusServiceUnavailable, "store unavailable")
	}
	return c.String(http.StatusOK, "ok")
}
