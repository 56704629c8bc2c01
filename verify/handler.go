package verify

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-recaptcha/internal/middleware/authhmac"
	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
	verifyErrors "github.com/qolzam/telar-recaptcha/verify/errors"
	"github.com/qolzam/telar-recaptcha/verify/models"
	"github.com/qolzam/telar-recaptcha/verify/validation"
)

// Handler serves the verification HTTP endpoints
type Handler struct {
	svc         *Service
	useClientIP bool
}

// NewHandler creates a handler. When useClientIP is set, requests without
// remoteIp forward the caller's IP to siteverify.
func NewHandler(svc *Service, useClientIP bool) *Handler {
	return &Handler{
		svc:         svc,
		useClientIP: useClientIP,
	}
}

// Verify handles POST /verify
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req models.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		log.WarnWithContext(c.UserContext(), "[Verify] unreadable request body: %v", err)
		return verifyErrors.HandleInvalidRequestError(c, "Request body must be JSON or form data")
	}

	if err := validation.ValidateStruct(req); err != nil {
		return verifyErrors.HandleValidationError(c, "Invalid verification request", validation.Fields(err))
	}

	remoteIP := req.RemoteIP
	if remoteIP == "" && h.useClientIP {
		remoteIP = c.IP()
	}

	outcome := h.svc.Verify(c.UserContext(), Input{
		Token:    req.Token,
		RemoteIP: remoteIP,
		Action:   req.Action,
		Caller:   authhmac.Caller(c),
	})

	return c.Status(fiber.StatusOK).JSON(outcome)
}

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok"}
	if stats, ok := h.svc.ReplayStats(); ok {
		resp["replayGuard"] = stats
	}
	return c.JSON(resp)
}
