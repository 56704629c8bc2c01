package authhmac

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
	"github.com/qolzam/telar-recaptcha/internal/types"
)

// New creates a middleware that requires internal callers to sign requests
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		signature := c.Get(types.HeaderHMACAuthenticate)
		caller := c.Get(types.HeaderCaller)
		timestamp := c.Get(types.HeaderTimestamp)

		if signature == "" || caller == "" || timestamp == "" {
			log.WarnWithContext(c.UserContext(), "Unauthorized! signature, caller and timestamp headers are required")
			return cfg.Unauthorized(c)
		}

		query := string(c.Context().URI().QueryString())
		if err := cfg.Authorizer(c.Method(), c.Path(), query, c.Body(), signature, caller, timestamp); err != nil {
			log.WarnWithContext(c.UserContext(), "HMAC validation failed for caller %s: %v", caller, err)
			return cfg.Unauthorized(c)
		}

		c.Locals(types.CallerCtxName, caller)
		return c.Next()
	}
}

// Caller returns the authenticated caller name, if any
func Caller(c *fiber.Ctx) string {
	if caller, ok := c.Locals(types.CallerCtxName).(string); ok {
		return caller
	}
	return ""
}
