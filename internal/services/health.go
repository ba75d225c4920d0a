package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/utils"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(ctx context.Context, cfg *config.Config, store ledger.Store, logger *slog.Logger) HealthCheckResult {
	logger = ResolveLogger(logger)
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check ledger storage
	if err := store.Ping(ctx); err != nil {
		result.Status = "unhealthy"
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
		logger.Error("health check failed",
			"event", "health_database_failed",
			"module", logModule,
			"error", err.Error(),
		)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		if cfg.DBDatabase != "" {
			result.Details["database_name"] = cfg.DBDatabase
		}
	}

	// Check Authorizer connectivity
	if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
		result.Status = "unhealthy"
		result.Authorizer = "unreachable"
		result.Details["authorizer_error"] = err.Error()
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("Authorizer ping failed: %v", err)
		} else {
			result.ErrorMessage += fmt.Sprintf("; Authorizer ping failed: %v", err)
		}
		logger.Error("health check failed",
			"event", "health_authorizer_failed",
			"module", logModule,
			"error", err.Error(),
		)
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	if result.Status == "healthy" {
		logger.Debug("health check passed", "event", "health_ok", "module", logModule)
	}

	return result
}
