package middleware

import (
	"context"

	"campingrate/internal/auth"
	"campingrate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie is the name of the HTTP-only cookie carrying the identity token.
const TokenCookie = "token"

const claimsLocal = "claims"

// TokenVerifier validates an identity token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthRequired rejects requests without a token cookie (401) or with an
// invalid or expired one (403). Valid claims are attached to the request.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(TokenCookie)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			Logger.DebugContext(c.UserContext(), "token rejected", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Invalid or expired token"))
		}

		attachClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth attaches claims when a valid token cookie is present and never rejects.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Cookies(TokenCookie); raw != "" {
			if claims, err := verifier.Verify(raw); err == nil {
				attachClaims(c, claims)
			}
		}
		return c.Next()
	}
}

func attachClaims(c *fiber.Ctx, claims *auth.Claims) {
	c.Locals(claimsLocal, claims)
	c.Locals("userID", claims.ID)
	ctx := context.WithValue(c.UserContext(), UserIDKey, claims.ID)
	c.SetUserContext(ctx)
}

// ClaimsFrom returns the verified claims attached by AuthRequired or OptionalAuth.
func ClaimsFrom(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsLocal).(*auth.Claims)
	return claims, ok && claims != nil
}

// UserIDFrom returns the authenticated user's ID.
func UserIDFrom(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
