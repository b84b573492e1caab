package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// EchoMiddleware records latency and status of every request by route
func (r *Recorder) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			r.httpInFlight.Inc()
			defer r.httpInFlight.Dec()

			err := next(c)

			code := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					code = he.Code
				} else if !c.Response().Committed {
					code = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			r.ObserveHTTP(c.Request().Method, path, code, time.Since(start))
			return err
		}
	}
}
