package models

import uuid "github.com/gofrs/uuid"

// VerifyRequest is the body of POST /verify, accepted as JSON or form data
type VerifyRequest struct {
	Token    string `json:"token" form:"token" validate:"required,max=4096,printascii"`
	RemoteIP string `json:"remoteIp" form:"remoteIp" validate:"omitempty,ip"`
	Action   string `json:"action" form:"action" validate:"omitempty,max=100"`
}

// AuditRecord is one persisted verification outcome. Tokens are stored hashed.
// Action is what siteverify reported; ExpectedAction is what the caller asked for.
type AuditRecord struct {
	ObjectId       uuid.UUID `db:"id" json:"objectId"`
	TokenHash      string    `db:"token_hash" json:"tokenHash"`
	Success        bool      `db:"success" json:"success"`
	Error          string    `db:"error" json:"error"`
	StatusCode     int       `db:"status_code" json:"statusCode"`
	Score          *float64  `db:"score" json:"score,omitempty"`
	Action         string    `db:"action" json:"action"`
	ExpectedAction string    `db:"expected_action" json:"expectedAction"`
	Hostname       string    `db:"hostname" json:"hostname"`
	RemoteIP       string    `db:"remote_ip" json:"remoteIp"`
	Caller         string    `db:"caller" json:"caller"`
	Bypassed       bool      `db:"bypassed" json:"bypassed"`
	CreatedDate    int64     `db:"created_date" json:"createdDate"`
}
