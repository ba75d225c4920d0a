package handlers

import (
	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves the health probe
type HealthHandler struct {
	Config *config.Config
	Store  ledger.Store
}

// Health handles GET /health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.Store, nil)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
