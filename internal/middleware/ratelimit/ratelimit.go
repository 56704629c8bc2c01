// Package ratelimit provides per-IP rate limiting for the verification endpoint
package ratelimit

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
)

// Default limits for the verify endpoint
const (
	DefaultMaxRequests    = 60
	DefaultWindowDuration = time.Minute
)

// Config holds the configuration for rate limiting middleware
type Config struct {
	// Max requests per window (optional - defaults to DefaultMaxRequests)
	Max int

	// Window duration (optional - defaults to DefaultWindowDuration)
	Window time.Duration

	// Next defines a function to skip this middleware when returned true
	Next func(c *fiber.Ctx) bool

	// Custom key generator (optional - uses default IP-based if not provided)
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReached defines the response when rate limit is exceeded
	LimitReached func(c *fiber.Ctx) error
}

// configDefault sets default configuration values
func configDefault(config Config) Config {
	if config.Max <= 0 {
		config.Max = DefaultMaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultWindowDuration
	}

	// Rate limit by IP + endpoint path
	if config.KeyGenerator == nil {
		config.KeyGenerator = func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		}
	}

	if config.LimitReached == nil {
		window := config.Window
		config.LimitReached = func(c *fiber.Ctx) error {
			log.WarnWithContext(c.UserContext(), "[RateLimit] Rate limit exceeded for %s from IP: %s", c.Path(), c.IP())

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code":       "RATE_LIMIT_EXCEEDED",
				"message":    "Too many verification attempts. Please try again later.",
				"retryAfter": int(window.Seconds()),
			})
		}
	}

	return config
}

// New creates a new rate limiting middleware handler
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return limiter.New(limiter.Config{
		Max:          cfg.Max,
		Expiration:   cfg.Window,
		KeyGenerator: cfg.KeyGenerator,
		LimitReached: cfg.LimitReached,
		Next:         cfg.Next,
	})
}

// NewVerifyLimiter creates a rate limiter for the verify endpoint
func NewVerifyLimiter(max int, window time.Duration) fiber.Handler {
	return New(Config{Max: max, Window: window})
}

// String describes the effective limits for startup logs
func (c Config) String() string {
	cfg := configDefault(c)
	return fmt.Sprintf("%d requests per %s", cfg.Max, cfg.Window)
}
