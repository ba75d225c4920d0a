// common.go
//
// Community holiday-lights showcase and vote ledger service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of holidaylights.
// holidaylights is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// holidaylights is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with holidaylights.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bluffpark/holidaylights/internal/middleware"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/bluffpark/holidaylights/internal/utils"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

// getIdentity extracts the caller from context (set by auth middleware)
func getIdentity(c *fiber.Ctx) (services.Identity, error) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return services.Identity{}, fmt.Errorf("user not found in context")
	}
	return identity, nil
}

// writeError maps the error taxonomy onto HTTP statuses
func writeError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, types.ErrConflict):
		return utils.ConflictResponse(c, errorType)
	case errors.Is(err, types.ErrForbidden):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, errorType)
	case errors.Is(err, types.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		logHandlerError(c, err, errorType, fiber.StatusServiceUnavailable)
		return utils.ErrorResponse(c, "Service temporarily unavailable", fiber.StatusServiceUnavailable, errorType)
	}
	logHandlerError(c, err, errorType, fiber.StatusInternalServerError)
	return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, errorType)
}

// logHandlerError keeps driver and network detail in the log, out of the response
func logHandlerError(c *fiber.Ctx, err error, errorType string, status int) {
	slog.Default().Error("request failed",
		"event", "http_request_failed",
		"module", "holidaylights/handlers",
		"type", errorType,
		"status", status,
		"method", c.Method(),
		"url", c.OriginalURL(),
		"error", err.Error(),
	)
}

// badInput sends the standard 400 for an unparseable body
func badInput(c *fiber.Ctx, errorType string) error {
	return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, errorType)
}

// pathID returns a trimmed copy of a path parameter. Params alias the request
// buffer, which fiber reuses once the handler returns.
func pathID(c *fiber.Ctx, name string) string {
	return fiberutils.CopyString(strings.TrimSpace(c.Params(name)))
}

func timestampNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
