package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WebhookAuth guards gateway callbacks with HTTP Basic auth whose password is
// the shared merchant key. An empty key rejects every call.
func WebhookAuth(merchantKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if merchantKey == "" {
			return fiber.NewError(fiber.StatusServiceUnavailable, "payment webhook is not configured")
		}

		parts := strings.SplitN(c.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Basic") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		decoded, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		_, password, _ := strings.Cut(string(decoded), ":")
		if subtle.ConstantTimeCompare([]byte(password), []byte(merchantKey)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid merchant key")
		}

		return c.Next()
	}
}
