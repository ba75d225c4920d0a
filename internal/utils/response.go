package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// ConflictResponse sends a retryable conflict (409): the request lost a race
// with a concurrent vote and may be sent again unchanged.
func ConflictResponse(c *fiber.Ctx, errorType string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":       fiber.StatusConflict,
		"message":      "E_CONFLICT - Concurrent update, retry the request.",
		"ok":           false,
		"versionError": true,
		"retryable":    true,
		"timestamp":    timestamp(),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
	})
}

// VoteAppliedResponse sends the post-commit user and submission
func VoteAppliedResponse(c *fiber.Ctx, user, submission interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":         true,
		"applied":    true,
		"user":       user,
		"submission": submission,
		"timestamp":  timestamp(),
	})
}

// VoteRejectedResponse sends a policy rejection. It is a 200: the request was
// valid and nothing changed.
func VoteRejectedResponse(c *fiber.Ctx, reason string, user, submission interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":         true,
		"applied":    false,
		"rejected":   true,
		"reason":     reason,
		"user":       user,
		"submission": submission,
		"timestamp":  timestamp(),
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status       int    `json:"status"`
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	Timestamp    string `json:"timestamp"`
	URL          string `json:"url"`
	Type         string `json:"type,omitempty"`
	VersionError bool   `json:"versionError,omitempty"`
	Retryable    bool   `json:"retryable,omitempty"`
}

// VoteResponseStruct defines the schema for vote responses
type VoteResponseStruct struct {
	Ok         bool        `json:"ok"`
	Applied    bool        `json:"applied"`
	Rejected   bool        `json:"rejected,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	User       interface{} `json:"user"`
	Submission interface{} `json:"submission"`
	Timestamp  string      `json:"timestamp"`
}
