// handlers/score_routes.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"

	"clicker-leaderboard/services"

	"github.com/gofiber/fiber/v2"
)

// SetupScoreRoutes mounts the score API under /api. No route requires auth.
func SetupScoreRoutes(app *fiber.App, scoreService *services.ScoreService) {
	api := app.Group("/api")

	api.Post("/scores", func(c *fiber.Ctx) error {
		var req services.SubmitRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return invalidInput(c, "Username and score are required")
		}

		username, score, ts, err := req.Parse()
		if err != nil {
			return inputError(c, err, "Failed to save score")
		}

		res, err := scoreService.Submit(c.UserContext(), username, score, ts)
		if err != nil {
			return inputError(c, err, "Failed to save score")
		}
		return c.JSON(res)
	})

	api.Get("/leaderboard", func(c *fiber.Ctx) error {
		top, err := scoreService.Leaderboard(c.UserContext())
		if err != nil {
			return serverError(c, err, "Failed to fetch leaderboard")
		}
		return c.JSON(top)
	})

	api.Get("/scores/:username", func(c *fiber.Ctx) error {
		username := decodedParam(c, "username")

		us, err := scoreService.GetUserScore(c.UserContext(), username)
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not found",
				"message": "User not found",
			})
		}
		if err != nil {
			return serverError(c, err, "Failed to fetch user score")
		}
		return c.JSON(us)
	})

	api.Put("/scores/:username/reset", func(c *fiber.Ctx) error {
		username := decodedParam(c, "username")

		var req services.ResetRequest
		if body := c.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return invalidInput(c, "Score must be a number")
			}
		}

		score, err := req.Parse()
		if err != nil {
			return inputError(c, err, "Failed to reset score")
		}

		rec, err := scoreService.Reset(c.UserContext(), username, score)
		if err != nil {
			return inputError(c, err, "Failed to reset score")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"score":   rec,
		})
	})
}

// decodedParam returns the route param with percent-escapes resolved.
// The result is copied off the request buffer since the store may keep it.
func decodedParam(c *fiber.Ctx, name string) string {
	raw := strings.Clone(c.Params(name))
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func invalidInput(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Invalid input",
		"message": message,
	})
}

// inputError answers 400 for validation failures and 500 for anything else.
func inputError(c *fiber.Ctx, err error, failure string) error {
	var ie *services.InputError
	if errors.As(err, &ie) {
		return invalidInput(c, ie.Message)
	}
	return serverError(c, err, failure)
}

// serverError logs the cause and answers with a generic message.
func serverError(c *fiber.Ctx, err error, message string) error {
	log.Printf("❌ [SCORES] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Server error",
		"message": message,
	})
}
