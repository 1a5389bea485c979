package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with its outcome and latency.
// Errors returned by handlers are passed to echo's error handler first so
// the logged status is the one the client saw.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("actor", actorOr(c, "")),
				zap.String("ip", c.RealIP()),
			}
			switch {
			case res.Status >= 500:
				log.Error("request", append(fields, zap.Error(err))...)
			case res.Status >= 400:
				log.Info("request", fields...)
			default:
				log.Debug("request", fields...)
			}
			return nil
		}
	}
}
