package authhmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-recaptcha/internal/types"
)

// MaxClockSkew is the accepted distance between the signed timestamp and now.
const MaxClockSkew = 5 * time.Minute

// Config defines the config for middleware.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Realm is reported in the WWW-Authenticate header.
	//
	// Optional. Default: "Restricted".
	Realm string

	// Authorizer checks the canonical request against the signature.
	//
	// Optional. Default: HMAC-SHA256 over the canonical string with PayloadSecret.
	Authorizer func(method, path, query string, body []byte, signature, caller, timestamp string) error

	// Unauthorized defines the response for unauthorized requests.
	//
	// Optional. Default: 401 with WWW-Authenticate header.
	Unauthorized fiber.Handler

	// PayloadSecret is the shared key used to sign requests.
	//
	// Required.
	PayloadSecret string

	// Now is used for the timestamp window check.
	//
	// Optional. Default: time.Now
	Now func() time.Time
}

// ConfigDefault is the default config
var ConfigDefault = Config{
	Realm: "Restricted",
	Now:   time.Now,
}

// Helper function to set default values
func configDefault(cfg Config) Config {
	if cfg.Realm == "" {
		cfg.Realm = ConfigDefault.Realm
	}
	if cfg.Now == nil {
		cfg.Now = ConfigDefault.Now
	}
	if cfg.Authorizer == nil {
		secret, now := cfg.PayloadSecret, cfg.Now
		cfg.Authorizer = func(method, path, query string, body []byte, signature, caller, timestamp string) error {
			return validateSignature(method, path, query, body, signature, secret, caller, timestamp, now())
		}
	}
	if cfg.Unauthorized == nil {
		realm := cfg.Realm
		cfg.Unauthorized = func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, "HMAC realm="+realm)
			return c.SendStatus(fiber.StatusUnauthorized)
		}
	}
	return cfg
}

// canonicalString builds METHOD\nPATH\nQUERY\nsha256(BODY)\nCALLER\nTIMESTAMP
func canonicalString(method, path, query string, body []byte, caller, timestamp string) string {
	bodyHash := sha256.Sum256(body)
	return fmt.Sprintf("%s\n%s\n%s\n%x\n%s\n%s", method, path, query, bodyHash, caller, timestamp)
}

// Sign returns the signature header value for a request.
func Sign(secret, method, path, query string, body []byte, caller, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonicalString(method, path, query, body, caller, timestamp)))
	return types.HMACPrefix + hex.EncodeToString(mac.Sum(nil))
}

func validateSignature(method, path, query string, body []byte, encodedHash, secret, caller, timestamp string, now time.Time) error {
	if method == "" || path == "" || encodedHash == "" || secret == "" || caller == "" || timestamp == "" {
		return fmt.Errorf("missing required parameters for HMAC validation")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp format: %w", err)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew > MaxClockSkew || skew < -MaxClockSkew {
		return fmt.Errorf("timestamp outside valid window: %s difference", skew)
	}

	if !strings.HasPrefix(encodedHash, types.HMACPrefix) {
		return fmt.Errorf("invalid signature format, expected '%s' prefix", types.HMACPrefix)
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(encodedHash, types.HMACPrefix))
	if err != nil {
		return fmt.Errorf("failed to decode hex signature: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonicalString(method, path, query, body, caller, timestamp)))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return fmt.Errorf("HMAC signature validation failed")
	}
	return nil
}
