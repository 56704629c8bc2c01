package types

// HTTP Header Constants
const (
	HeaderHMACAuthenticate = "X-Recaptcha-Signature"
	HeaderTimestamp        = "X-Timestamp"
	HeaderCaller           = "X-Caller"
	HeaderContentType      = "Content-Type"
)

// Content types
const (
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeJSON = "application/json"
)

// Authentication Constants
const (
	HMACPrefix    = "sha256="
	CallerCtxName = "caller"
)
