package handlers

import (
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user routes
type UserHandler struct {
	Users *services.UserService
}

// Login handles POST /api/users/login
// @Summary Sign in
// @Description Returns the caller's user record, creating it on first login
// @Tags Users
// @Produce json
// @Success 200 {object} models.User
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /users/login [post]
func (h *UserHandler) Login(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "authorization.user")
	}

	user, err := h.Users.Login(c.UserContext(), identity)
	if err != nil {
		return writeError(c, err, "users.login")
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// Profile handles GET /api/users/me
// @Summary Current user profile
// @Description The caller, the votes they have cast and their own display
// @Tags Users
// @Produce json
// @Success 200 {object} services.Profile
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /users/me [get]
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "authorization.user")
	}

	profile, err := h.Users.Profile(c.UserContext(), identity.ID)
	if err != nil {
		return writeError(c, err, "users.profile")
	}
	return utils.SuccessResponse(c, profile, fiber.StatusOK)
}
