// Package server builds the fiber application shared by the service binary and its tests.
package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-recaptcha/internal/middleware/requestid"
	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
)

// Config controls how the app resolves client addresses.
type Config struct {
	// ProxyHeader names the header carrying the client IP, e.g. X-Forwarded-For.
	// Empty means c.IP() is the TCP peer address.
	ProxyHeader string

	// TrustedProxies restricts ProxyHeader to requests arriving from these
	// addresses or CIDR ranges. Empty trusts every peer.
	TrustedProxies []string
}

// New creates the fiber app with the error handler and request-id middleware.
func New(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ProxyHeader:             cfg.ProxyHeader,
		EnableTrustedProxyCheck: len(cfg.TrustedProxies) > 0,
		TrustedProxies:          cfg.TrustedProxies,
		EnableIPValidation:      cfg.ProxyHeader != "",
		ErrorHandler:            errorHandler,
	})
	app.Use(requestid.New())
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.ErrorWithContext(c.UserContext(), "[ErrorHandler] Path: %s, Error: %v, Code: %d", c.Path(), err, code)

	if len(c.Response().Body()) > 0 {
		return nil
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
