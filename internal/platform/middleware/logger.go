package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smilecare/clinic/internal/platform/auth"
)

// Logger writes one structured line per request. The staff member and branch
// are taken from the request context after the handler chain has run, so
// requests past the auth middleware are attributable to a user.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			req := c.Request()
			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			ctx := req.Context()
			if uid := auth.UserIDFromContext(ctx); uid != "" {
				evt = evt.Str("user", uid)
			}
			if branch := auth.BranchFromContext(ctx); branch != "" {
				evt = evt.Str("branch", branch)
			}

			evt.Msg("request")
			return err
		}
	}
}
