package ratelimit

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar-recaptcha/internal/types"
)

func newLimitedApp(max int) *fiber.App {
	app := fiber.New(fiber.Config{ProxyHeader: "X-Real-IP"})
	app.Use(NewVerifyLimiter(max, time.Minute))
	app.Post("/verify", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, ip string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/verify", strings.NewReader("{}"))
	req.Header.Set(types.HeaderContentType, types.ContentTypeJSON)
	req.Header.Set("X-Real-IP", ip)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimit_SuccessWithinLimits(t *testing.T) {
	app := newLimitedApp(3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, doRequest(t, app, "192.168.1.1"))
	}
}

func TestRateLimit_RejectsExcessiveRequests(t *testing.T) {
	app := newLimitedApp(2)
	for i := 0; i < 2; i++ {
		assert.Equal(t, 200, doRequest(t, app, "192.168.1.1"))
	}

	req := httptest.NewRequest("POST", "/verify", strings.NewReader("{}"))
	req.Header.Set("X-Real-IP", "192.168.1.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 429, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "RATE_LIMIT_EXCEEDED")
	assert.Contains(t, string(body), `"retryAfter":60`)
}

func TestRateLimit_DifferentIPs_IndependentLimits(t *testing.T) {
	app := newLimitedApp(1)
	assert.Equal(t, 200, doRequest(t, app, "10.0.0.1"))
	assert.Equal(t, 429, doRequest(t, app, "10.0.0.1"))
	assert.Equal(t, 200, doRequest(t, app, "10.0.0.2"))
}

func TestRateLimit_Defaults(t *testing.T) {
	assert.Equal(t, "60 requests per 1m0s", Config{}.String())
	assert.Equal(t, "5 requests per 10s", Config{Max: 5, Window: 10 * time.Second}.String())
}
