package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlers(t *testing.T) {
	cases := []struct {
		name       string
		handler    fiber.Handler
		wantStatus int
		wantCode   string
	}{
		{"validation", func(c *fiber.Ctx) error {
			return HandleValidationError(c, "bad", map[string]string{"Token": "Token is required"})
		}, http.StatusBadRequest, CodeValidationFailed},
		{"invalid request", func(c *fiber.Ctx) error {
			return HandleInvalidRequestError(c, "unreadable")
		}, http.StatusBadRequest, CodeInvalidRequest},
		{"unauthorized", HandleUnauthorizedError, http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.handler)

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}
