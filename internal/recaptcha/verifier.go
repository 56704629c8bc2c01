package recaptcha

import "context"

// Verifier is the interface that wraps the reCAPTCHA token validation method.
type Verifier interface {
	// Validate checks token against the remote siteverify service and the
	// local policy. Every failure is reported through the returned Outcome.
	Validate(ctx context.Context, token string, opts ValidateOptions) Outcome
}

// ValidateOptions carries the optional per-call context of a validation.
type ValidateOptions struct {
	// RemoteIP is forwarded as "remoteip" when non-empty.
	RemoteIP string
	// ExpectedAction must equal the action reported by the remote service when non-empty.
	ExpectedAction string
}

var _ Verifier = (*Validator)(nil)
