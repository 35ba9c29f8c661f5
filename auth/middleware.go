package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is where the guard stores the resolved identity.
const DefaultContextKey = "current_user"

// Protected is the Session Guard: it extracts the bearer assertion, decodes
// it, resolves the identity, and checks the session epoch before handing the
// request to the next handler. It is read-only; unauthenticated routes must
// simply not mount it.
func Protected(auther *Auther, contextKey string, logger Logger) fiber.Handler {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := ExtractBearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return renderError(c, ErrTokenMissing)
		}

		claims, err := auther.SessionFromToken(raw)
		if err != nil {
			logger.Debug("bearer token rejected", "error", err)
			return renderError(c, ErrTokenInvalid)
		}

		user, err := auther.IdentityFromClaims(c.UserContext(), claims)
		if err != nil {
			return renderError(c, ErrTokenInvalid)
		}

		c.Locals(contextKey, user)
		return c.Next()
	}
}

// ExtractBearerToken returns the assertion from an "Authorization: Bearer x"
// header, or "" for any other scheme or shape.
func ExtractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// CurrentUser returns the identity bound by the guard, or ErrTokenInvalid
// when a handler runs without one.
func CurrentUser(c *fiber.Ctx, contextKey string) (*User, error) {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	user, ok := c.Locals(contextKey).(*User)
	if !ok || user == nil {
		return nil, ErrTokenInvalid
	}
	return user, nil
}
