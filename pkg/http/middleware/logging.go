package middleware

import (
	"time"

	xlogger "TrueVol/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request with method, path, status and
// latency.
func RequestLogging(log *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			log.Info("http request",
				xlogger.String("method", req.Method),
				xlogger.String("uri", req.RequestURI),
				xlogger.String("remote", req.RemoteAddr),
				xlogger.Int("status", res.Status),
				xlogger.Duration("latency", time.Since(start)),
			)

			return err
		}
	}
}
