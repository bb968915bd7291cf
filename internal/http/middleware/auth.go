package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"bms/internal/auth"
)

// IdentityLocalKey is the Fiber locals key holding the caller's *auth.Identity.
const IdentityLocalKey = "identity"

// Authenticate resolves the bearer credential once per request and stores the identity in locals.
// Any credential that cannot be resolved ends the request with 401. Provider outages
// are recorded on the request span.
func Authenticate(authn auth.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		id, err := authn.Resolve(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
			}
			trace.SpanFromContext(c.UserContext()).RecordError(err)
			return fiber.NewError(fiber.StatusUnauthorized, "unable to verify credentials")
		}

		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *fiber.Ctx) (*auth.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(*auth.Identity)
	return id, ok && id != nil
}
