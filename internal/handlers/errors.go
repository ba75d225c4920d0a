package handlers

import (
	"errors"

	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors returned by handlers and middleware in the
// standard error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fiberErr *fiber.Error
	var customErr *types.CustomError
	switch {
	case errors.As(err, &customErr):
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrForbidden),
		errors.Is(err, types.ErrStorageUnavailable):
		return writeError(c, err, errorType)
	default:
		logHandlerError(c, err, errorType, code)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": timestampNow(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFound is the catch-all 404 handler
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   "[404] Resource Not Found",
		"ok":        false,
		"timestamp": timestampNow(),
		"url":       c.OriginalURL(),
	})
}
