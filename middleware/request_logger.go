// middleware/request_logger.go
package middleware

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs method, path, status and latency for every request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not written the response yet
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		log.Printf("[HTTP] %-6s %s %d (%s)", c.Method(), c.OriginalURL(), status, time.Since(start).Round(time.Microsecond))
		return err
	}
}
