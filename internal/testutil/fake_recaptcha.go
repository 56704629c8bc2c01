package testutil

import (
	"context"
	"sync"

	"github.com/qolzam/telar-recaptcha/internal/recaptcha"
)

// FakeVerifier is a test-only implementation of the recaptcha.Verifier interface.
type FakeVerifier struct {
	// Outcome is returned for every call.
	Outcome recaptcha.Outcome
	// BypassCode makes IsBypass report true for this token.
	BypassCode string

	mu    sync.Mutex
	calls []FakeCall
}

// FakeCall records one Validate invocation.
type FakeCall struct {
	Token string
	Opts  recaptcha.ValidateOptions
}

// Validate implements the recaptcha.Verifier interface for tests.
func (f *FakeVerifier) Validate(ctx context.Context, token string, opts recaptcha.ValidateOptions) recaptcha.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, FakeCall{Token: token, Opts: opts})
	return f.Outcome
}

// IsBypass reports whether token equals BypassCode.
func (f *FakeVerifier) IsBypass(token string) bool {
	return f.BypassCode != "" && token == f.BypassCode
}

// Calls returns a copy of the recorded invocations.
func (f *FakeVerifier) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// SuccessOutcome is a passing outcome with a parsed result.
func SuccessOutcome(score float64, action string) recaptcha.Outcome {
	return recaptcha.Outcome{
		Success:    true,
		StatusCode: 200,
		Result: &recaptcha.VerificationResult{
			Success:  true,
			Score:    score,
			Action:   action,
			Hostname: "example.com",
		},
	}
}
