package verify

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-recaptcha/internal/middleware/authhmac"
	"github.com/qolzam/telar-recaptcha/internal/middleware/ratelimit"
	verifyErrors "github.com/qolzam/telar-recaptcha/verify/errors"
)

// RouteOptions controls the middleware placed in front of /verify
type RouteOptions struct {
	// HMACSecret enables request signing when non-empty
	HMACSecret string

	RateLimitEnabled bool
	RateLimitMax     int
	RateLimitWindow  time.Duration
}

// RegisterRoutes mounts the verification endpoints on router
func RegisterRoutes(router fiber.Router, h *Handler, opts RouteOptions) {
	router.Get("/health", h.Health)

	chain := []fiber.Handler{}
	if opts.RateLimitEnabled {
		chain = append(chain, ratelimit.NewVerifyLimiter(opts.RateLimitMax, opts.RateLimitWindow))
	}
	if opts.HMACSecret != "" {
		chain = append(chain, authhmac.New(authhmac.Config{
			PayloadSecret: opts.HMACSecret,
			Unauthorized:  verifyErrors.HandleUnauthorizedError,
		}))
	}
	chain = append(chain, h.Verify)

	router.Post("/verify", chain...)
}
