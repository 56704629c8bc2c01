// Copyright (c) 2025 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/qolzam/telar-recaptcha/verify/models"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS recaptcha_audit (
	id              UUID PRIMARY KEY,
	token_hash      TEXT NOT NULL,
	success         BOOLEAN NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	status_code     INTEGER NOT NULL,
	score           DOUBLE PRECISION,
	action          TEXT NOT NULL DEFAULT '',
	expected_action TEXT NOT NULL DEFAULT '',
	hostname        TEXT NOT NULL DEFAULT '',
	remote_ip       TEXT NOT NULL DEFAULT '',
	caller          TEXT NOT NULL DEFAULT '',
	bypassed        BOOLEAN NOT NULL DEFAULT FALSE,
	created_date    BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recaptcha_audit_token_hash ON recaptcha_audit (token_hash);
CREATE INDEX IF NOT EXISTS idx_recaptcha_audit_created_date ON recaptcha_audit (created_date);`

// PostgresConfig holds the connection settings for the audit database
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to Postgres and applies pool settings
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// postgresAuditRepository implements AuditRepository using raw SQL queries
type postgresAuditRepository struct {
	db *sqlx.DB
}

// NewPostgresAuditRepository creates a new PostgreSQL repository for audit records
func NewPostgresAuditRepository(db *sqlx.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

// EnsureSchema creates the audit table and indexes if missing
func (r *postgresAuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Save inserts one audit record, assigning ID and timestamp when unset
func (r *postgresAuditRepository) Save(ctx context.Context, record *models.AuditRecord) error {
	if record.ObjectId == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate audit id: %w", err)
		}
		record.ObjectId = id
	}
	if record.CreatedDate == 0 {
		record.CreatedDate = time.Now().Unix()
	}

	query := `
		INSERT INTO recaptcha_audit (
			id, token_hash, success, error, status_code, score,
			action, expected_action, hostname, remote_ip, caller, bypassed, created_date
		) VALUES (
			:id, :token_hash, :success, :error, :status_code, :score,
			:action, :expected_action, :hostname, :remote_ip, :caller, :bypassed, :created_date
		)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

// FindByTokenHash returns all records for a token, newest first
func (r *postgresAuditRepository) FindByTokenHash(ctx context.Context, tokenHash string) ([]models.AuditRecord, error) {
	query := `
		SELECT id, token_hash, success, error, status_code, score,
		       action, expected_action, hostname, remote_ip, caller, bypassed, created_date
		FROM recaptcha_audit
		WHERE token_hash = $1
		ORDER BY created_date DESC`

	var records []models.AuditRecord
	if err := r.db.SelectContext(ctx, &records, query, tokenHash); err != nil {
		return nil, fmt.Errorf("failed to find audit records: %w", err)
	}
	return records, nil
}
