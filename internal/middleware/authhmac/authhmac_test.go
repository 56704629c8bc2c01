package authhmac

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-recaptcha/internal/types"
)

func newSignedApp() *fiber.App {
	app := fiber.New()
	app.Post("/verify", New(Config{PayloadSecret: "s"}), func(c *fiber.Ctx) error {
		return c.SendString(Caller(c))
	})
	return app
}

func signedRequest(body []byte, caller string, ts time.Time, secret string) *http.Request {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	req := httptest.NewRequest("POST", "/verify", bytes.NewReader(body))
	req.Header.Set(types.HeaderContentType, types.ContentTypeJSON)
	req.Header.Set(types.HeaderHMACAuthenticate, Sign(secret, "POST", "/verify", "", body, caller, timestamp))
	req.Header.Set(types.HeaderCaller, caller)
	req.Header.Set(types.HeaderTimestamp, timestamp)
	return req
}

func TestAuthHMAC_UnauthorizedWithoutHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/verify", bytes.NewReader([]byte("{}")))
	req.Header.Set(types.HeaderContentType, types.ContentTypeJSON)
	resp, _ := newSignedApp().Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderWWWAuthenticate); got != "HMAC realm=Restricted" {
		t.Fatalf("unexpected WWW-Authenticate %q", got)
	}
}

func TestAuthHMAC_AuthorizedWithValidSignature(t *testing.T) {
	resp, err := newSignedApp().Test(signedRequest([]byte(`{"token":"t"}`), "signup-service", time.Now(), "s"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "signup-service" {
		t.Fatalf("expected caller signup-service, got %q", body)
	}
}

func TestCaller_EmptyWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(Caller(c))
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Fatalf("expected no caller, got %q", body)
	}
}

func TestAuthHMAC_WrongSecret(t *testing.T) {
	resp, _ := newSignedApp().Test(signedRequest([]byte("{}"), "svc", time.Now(), "other"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthHMAC_TamperedBody(t *testing.T) {
	req := signedRequest([]byte(`{"token":"a"}`), "svc", time.Now(), "s")
	req.Body = httptest.NewRequest("POST", "/verify", bytes.NewReader([]byte(`{"token":"b"}`))).Body
	resp, _ := newSignedApp().Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthHMAC_StaleTimestamp(t *testing.T) {
	resp, _ := newSignedApp().Test(signedRequest([]byte("{}"), "svc", time.Now().Add(-10*time.Minute), "s"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestValidateSignature_Errors(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)

	cases := map[string]error{
		"missing": validateSignature("POST", "/", "", nil, "", "s", "c", ts, now),
		"bad ts":  validateSignature("POST", "/", "", nil, "sha256=00", "s", "c", "yesterday", now),
		"prefix":  validateSignature("POST", "/", "", nil, "md5=00", "s", "c", ts, now),
		"hex":     validateSignature("POST", "/", "", nil, "sha256=zz", "s", "c", ts, now),
	}
	for name, err := range cases {
		if err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if err := validateSignature("POST", "/", "a=1", []byte("x"), Sign("s", "POST", "/", "a=1", []byte("x"), "c", ts), "s", "c", ts, now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}
