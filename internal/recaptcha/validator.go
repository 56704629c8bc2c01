package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qolzam/telar-recaptcha/internal/types"
)

const (
	// SiteVerifyURL is Google's verification endpoint.
	SiteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

	// InternalAllow is the Outcome error text for tokens matching the bypass code.
	InternalAllow = "Internal allow"

	defaultTimeout     = 5 * time.Second
	defaultMaxBodySize = 1 << 20
)

// Validator validates tokens against siteverify and a fixed Policy.
// It is safe for concurrent use.
type Validator struct {
	policy      Policy
	endpoint    string
	httpClient  *http.Client
	maxBodySize int64
}

// Option configures a Validator.
type Option func(*Validator)

// WithHTTPClient replaces the default client (5s timeout).
func WithHTTPClient(client *http.Client) Option {
	return func(v *Validator) {
		if client != nil {
			v.httpClient = client
		}
	}
}

// WithEndpoint overrides the siteverify URL.
func WithEndpoint(endpoint string) Option {
	return func(v *Validator) {
		if endpoint != "" {
			v.endpoint = endpoint
		}
	}
}

// WithMaxBodySize limits how much of the response body is read.
func WithMaxBodySize(n int64) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxBodySize = n
		}
	}
}

// NewValidator creates a validator bound to policy.
func NewValidator(policy Policy, opts ...Option) (*Validator, error) {
	if policy.SecretKey == "" {
		return nil, fmt.Errorf("recaptcha secret key cannot be empty")
	}
	if policy.MinScore < 0 || policy.MinScore > 1 {
		return nil, fmt.Errorf("recaptcha min score must be within [0,1], got %v", policy.MinScore)
	}

	v := &Validator{
		policy:      policy,
		endpoint:    SiteVerifyURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Policy returns a copy of the policy the validator was built with.
func (v *Validator) Policy() Policy {
	return v.policy
}

// IsBypass reports whether token matches the configured bypass code.
func (v *Validator) IsBypass(token string) bool {
	return v.policy.BypassCode != "" && token == v.policy.BypassCode
}

// Validate runs one verification round trip and evaluates the policy.
// Checks short-circuit in order: transport, status, empty body, parse,
// remote success, score, hostname, action.
func (v *Validator) Validate(ctx context.Context, token string, opts ValidateOptions) (outcome Outcome) {
	if v.IsBypass(token) {
		return Outcome{
			Success:    true,
			Error:      InternalAllow,
			StatusCode: http.StatusOK,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Error: fmt.Sprintf("Cannot execute reCAPTCHA validation: %v", r)}
		}
	}()

	statusCode, body, err := v.post(ctx, token, opts.RemoteIP)
	if err != nil {
		return Outcome{
			Error:      fmt.Sprintf("Cannot execute reCAPTCHA validation: %v", err),
			StatusCode: statusCode,
			Body:       body,
		}
	}

	if statusCode < 200 || statusCode > 299 {
		return Outcome{
			Error:      fmt.Sprintf("Cannot execute reCAPTCHA validation, StatusCode: %d", statusCode),
			StatusCode: statusCode,
			Body:       body,
		}
	}

	if body == "" {
		return Outcome{
			Error:      fmt.Sprintf("Invalid reCAPTCHA verification response: %d", statusCode),
			StatusCode: statusCode,
		}
	}

	result, ok := parseResult(body)
	if !ok {
		return Outcome{
			Error:      fmt.Sprintf("Invalid reCAPTCHA verification response (cannot parse): %d", statusCode),
			StatusCode: statusCode,
			Body:       body,
		}
	}

	return v.evaluate(result, opts.ExpectedAction, statusCode, body)
}

// evaluate applies the local policy to a parsed response.
func (v *Validator) evaluate(result *VerificationResult, expectedAction string, statusCode int, body string) Outcome {
	fail := func(msg string) Outcome {
		return Outcome{
			Error:      msg,
			StatusCode: statusCode,
			Body:       body,
			Result:     result,
		}
	}

	if !result.Success {
		return fail(strings.Join(result.ErrorCodes, ","))
	}

	if result.Score < v.policy.MinScore {
		return fail("It might be a bot. Bad score: " + strconv.FormatFloat(result.Score, 'f', -1, 64))
	}

	if v.policy.Hostname != "" && result.Hostname != v.policy.Hostname {
		return fail(fmt.Sprintf("It might be a bot. Bad host: %s, Expected: %s", result.Hostname, v.policy.Hostname))
	}

	if expectedAction != "" && result.Action != expectedAction {
		return fail(fmt.Sprintf("It might be a bot. Bad action: %s, Expected: %s", result.Action, expectedAction))
	}

	return Outcome{
		Success:    true,
		StatusCode: statusCode,
		Body:       body,
		Result:     result,
	}
}

// post sends the form to siteverify and returns status and raw body.
func (v *Validator) post(ctx context.Context, token, remoteIP string) (int, string, error) {
	formData := url.Values{
		"secret":   {v.policy.SecretKey},
		"response": {token},
	}
	if remoteIP != "" {
		formData.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(formData.Encode()))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create recaptcha request: %w", err)
	}
	req.Header.Set(types.HeaderContentType, types.ContentTypeForm)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to call recaptcha api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, v.maxBodySize))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read recaptcha response: %w", err)
	}
	return resp.StatusCode, string(raw), nil
}

// parseResult decodes body; a JSON null counts as unparseable.
func parseResult(body string) (*VerificationResult, bool) {
	var result *VerificationResult
	if err := json.Unmarshal([]byte(body), &result); err != nil || result == nil {
		return nil, false
	}
	return result, true
}
