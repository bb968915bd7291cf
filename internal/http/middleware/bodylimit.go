package middleware

import "github.com/gofiber/fiber/v2"

// BodyLimit rejects requests whose declared Content-Length exceeds limit before any of the
// body is read. It is meant for apps running with StreamRequestBody, where the server hands
// oversize bodies to the handlers instead of failing the connection. Chunked bodies carry no
// length up front and are refused with 411.
//
// A rejected body stays unread on the wire, so the connection is closed after the response.
func BodyLimit(limit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n := c.Request().Header.ContentLength()
		switch {
		case n > limit:
			c.Context().SetConnectionClose()
			return fiber.ErrRequestEntityTooLarge
		case n == -1:
			c.Context().SetConnectionClose()
			return fiber.ErrLengthRequired
		}
		return c.Next()
	}
}
