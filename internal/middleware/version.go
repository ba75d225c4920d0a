package middleware

import (
	"fmt"
	"strings"

	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/gofiber/fiber/v2"
)

// APIVersion is the version of the JSON API served under /api
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header, stores it in context and
// rejects requests for a major version this server does not speak.
func VersionMiddleware() fiber.Handler {
	major := strings.SplitN(APIVersion, ".", 2)[0]

	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", APIVersion)

		// Support version aliases
		switch version {
		case major, major + ".0":
			version = APIVersion
		}

		if strings.SplitN(version, ".", 2)[0] != major {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: fmt.Sprintf("Unsupported API version %q", version),
				Type:    "version.unsupported",
			}
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", APIVersion)

		return c.Next()
	}
}
