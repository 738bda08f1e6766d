package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recalldb/internal/types"
)

// APIVersion is the version of the HTTP adapter's routes
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header, rejects other major
// versions and stores the requested version in context
func VersionMiddleware() fiber.Handler {
	major, _, _ := strings.Cut(APIVersion, ".")

	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", APIVersion)
		c.Set("X-Api-Version", APIVersion)

		// Support version aliases
		switch version {
		case major, major + ".0":
			version = APIVersion
		}

		if m, _, _ := strings.Cut(version, "."); m != major {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: fmt.Sprintf("unsupported API version %q, this server speaks %s", version, APIVersion),
				Type:    "version",
			}
		}

		c.Locals("apiVersion", version)

		return c.Next()
	}
}
