package recaptcha

import "time"

// Policy holds the local acceptance rules applied to every verification.
// Empty BypassCode and Hostname disable their respective checks.
type Policy struct {
	SecretKey  string  `json:"-"`
	MinScore   float64 `json:"minScore"`
	BypassCode string  `json:"-"`
	Hostname   string  `json:"hostname,omitempty"`
}

// VerificationResult is the siteverify response body.
type VerificationResult struct {
	Success     bool      `json:"success"`
	Score       float64   `json:"score"`
	Action      string    `json:"action"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes,omitempty"`
}

// Outcome is the result of a single Validate call.
type Outcome struct {
	Success    bool                `json:"success"`
	Error      string              `json:"error"`
	StatusCode int                 `json:"statusCode"`
	Body       string              `json:"httpResponseBody,omitempty"`
	Result     *VerificationResult `json:"response,omitempty"`
}
