// middleware/error_handler.go
package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler turns errors that escape a route into the API's JSON error
// shape. Unknown routes answer 404; everything else is a generic 500 with
// the cause kept in the server log.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   "Not found",
				"message": "Route not found",
			})
		case fiber.StatusMethodNotAllowed:
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   "Method not allowed",
				"message": fe.Message,
			})
		}
	}

	log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Server error",
		"message": "Something went wrong!",
	})
}
