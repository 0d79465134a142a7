package jwt

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
)

const principalKey = "principal"

// NewAuthMiddleware returns a Fiber middleware that validates the bearer
// token with v. On success the principal is stored in c.Locals and its
// subject becomes the audit actor of the request context.
func NewAuthMiddleware(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Authentication("missing Authorization header")
		}
		// Support both "Bearer <token>" and "<token>" (no prefix).
		tokenStr := strings.TrimSpace(authHeader)
		if scheme, rest, ok := strings.Cut(tokenStr, " "); ok && strings.EqualFold(scheme, "Bearer") {
			tokenStr = strings.TrimSpace(rest)
		}
		if tokenStr == "" || strings.EqualFold(tokenStr, "Bearer") {
			return apperr.Authentication("empty token")
		}

		p, err := v.Verify(c.UserContext(), tokenStr)
		if err != nil {
			return err
		}
		c.Locals(principalKey, p)
		c.SetUserContext(audit.WithActor(c.UserContext(), p.Subject))
		return c.Next()
	}
}

// PrincipalFrom returns the principal set by the middleware.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// RequireScope rejects callers whose token lacks scope with 403. It must run
// after NewAuthMiddleware. An empty scope disables the check.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if scope == "" {
			return c.Next()
		}
		p, ok := PrincipalFrom(c)
		if !ok {
			return apperr.Authentication("request is not authenticated")
		}
		if !p.HasScope(scope) {
			return apperr.InsufficientPermissions()
		}
		return c.Next()
	}
}
