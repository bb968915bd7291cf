package middleware

import "github.com/gofiber/fiber/v2"

// DebugErrorsLocalKey marks requests whose error responses may carry internal details.
const DebugErrorsLocalKey = "debug_errors"

// DebugErrors sets the debug flag for every request. Production deployments pass false.
func DebugErrors(enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(DebugErrorsLocalKey, enabled)
		return c.Next()
	}
}
