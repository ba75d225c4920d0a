package middleware

import (
	"fmt"

	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// IdentityKey is the fiber Locals key holding the caller's services.Identity
const IdentityKey = "identity"

// SessionValidator turns a session cookie into an identity
type SessionValidator interface {
	Init(requestProtocol, requestHost string) error
	ValidateSession(cookie string, roles []string) (services.Identity, error)
}

// AuthUser validates that the request has user role authorization
func AuthUser(validator SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, validator, []string{"user"}, "authorization.user")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, validator SessionValidator, roles []string, errorType string) error {
	// Get session cookie
	session := utils.CopyString(c.Cookies("cookie_session"))
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	if err := validator.Init(c.Protocol(), c.Hostname()); err != nil {
		return &types.CustomError{
			Code:    fiber.StatusServiceUnavailable,
			Message: fmt.Sprintf("Authorizer unavailable: %v", err),
			Type:    errorType,
		}
	}

	identity, err := validator.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	c.Locals(IdentityKey, identity)
	return c.Next()
}

// CurrentIdentity returns the identity stored by AuthUser
func CurrentIdentity(c *fiber.Ctx) (services.Identity, bool) {
	identity, ok := c.Locals(IdentityKey).(services.Identity)
	if !ok || identity.ID == "" {
		return services.Identity{}, false
	}
	return identity, true
}
