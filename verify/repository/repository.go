// Copyright (c) 2025 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	"github.com/qolzam/telar-recaptcha/verify/models"
)

// AuditRepository persists verification outcomes for later review
type AuditRepository interface {
	// EnsureSchema creates the audit table and indexes if missing
	EnsureSchema(ctx context.Context) error

	// Save inserts one audit record
	Save(ctx context.Context, record *models.AuditRecord) error

	// FindByTokenHash returns all records for a token, newest first
	FindByTokenHash(ctx context.Context, tokenHash string) ([]models.AuditRecord, error)
}
