package handler

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AdminAuth guards admin routes with a shared token carried in the
// X-Admin-Token header. An empty configured token disables the routes
// entirely rather than leaving them open.
func AdminAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access disabled"})
		}
		provided := c.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			log.Warn().
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("admin auth rejected")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

// isAdmin reports whether the request carries the configured admin token.
// Used where a route accepts both owner and admin actors.
func isAdmin(c *fiber.Ctx, token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(token)) == 1
}
