package handlers

import (
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// LeaderboardHandler handles leaderboard routes
type LeaderboardHandler struct {
	Leaderboard *services.LeaderboardService
}

// Rank handles GET /api/leaderboard?category=...&limit=...
// @Summary Leaderboard
// @Description Submissions ranked by votes in a category, or by total votes when no category is given
// @Tags Leaderboard
// @Produce json
// @Param category query string false "Category tag or label"
// @Param limit query int false "Maximum rows (default 20, max 100)"
// @Success 200 {array} services.Standing
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Rank(c *fiber.Ctx) error {
	var category models.Category
	if raw := c.Query("category"); raw != "" {
		parsed, err := models.ParseCategory(raw)
		if err != nil {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "leaderboard.validation.category")
		}
		category = parsed
	}

	standings, err := h.Leaderboard.Rank(c.UserContext(), category, c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err, "leaderboard")
	}
	return utils.SuccessResponse(c, standings, fiber.StatusOK)
}
