package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/tikets-io/tikets/pkg/util"
)

// AdminMiddleware guards administrative routes. It accepts a Bearer JWT
// issued by the login endpoint and, as a legacy fallback, the shared secret
// in the X-Admin-Token header.
type AdminMiddleware struct {
	tokens      *TokenManager
	legacyToken string
}

// NewAdminMiddleware constructs middleware.
func NewAdminMiddleware(tokens *TokenManager, legacyToken string) *AdminMiddleware {
	return &AdminMiddleware{tokens: tokens, legacyToken: legacyToken}
}

// Handle enforces admin authentication for protected routes.
func (m *AdminMiddleware) Handle(c *fiber.Ctx) error {
	if legacy := c.Get("X-Admin-Token"); legacy != "" {
		if m.legacyToken != "" && ConstantTimeEquals(legacy, m.legacyToken) {
			return c.Next()
		}
		return apperrors.NewUnauthorized("invalid admin token")
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	if _, err := m.tokens.ParseToken(parts[1]); err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	return c.Next()
}
