package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"orderapi/internal/metrics"
)

// Metrics records the count, duration and in-flight total of every request,
// labelled by the matched route pattern rather than the raw path.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.RequestStarted()
		defer m.RequestFinished()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.RecordRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
