// Copyright (c) 2025 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar-recaptcha/verify/models"
)

func newMockRepository(t *testing.T) (AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresAuditRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresAuditRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS recaptcha_audit").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditRepository_Save(t *testing.T) {
	repo, mock := newMockRepository(t)
	score := 0.9

	record := &models.AuditRecord{
		TokenHash:      "abc",
		Success:        true,
		StatusCode:     200,
		Score:          &score,
		Action:         "login",
		ExpectedAction: "signup",
		Hostname:       "example.com",
		RemoteIP:       "10.0.0.1",
		Caller:         "signup-service",
	}

	mock.ExpectExec("INSERT INTO recaptcha_audit").
		WithArgs(sqlmock.AnyArg(), "abc", true, "", 200, 0.9, "login", "signup", "example.com", "10.0.0.1", "signup-service", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), record))
	assert.NotEqual(t, uuid.Nil, record.ObjectId)
	assert.NotZero(t, record.CreatedDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditRepository_SaveError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO recaptcha_audit").WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), &models.AuditRecord{TokenHash: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresAuditRepository_FindByTokenHash(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.Must(uuid.NewV4())

	columns := []string{"id", "token_hash", "success", "error", "status_code", "score",
		"action", "expected_action", "hostname", "remote_ip", "caller", "bypassed", "created_date"}
	mock.ExpectQuery("SELECT (.+) FROM recaptcha_audit WHERE token_hash").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "abc", false, "It might be a bot. Bad score: 0.3", 200, 0.3, "login", "signup", "example.com", "", "", false, int64(1700000000)).
			AddRow(uuid.Must(uuid.NewV4()).String(), "abc", true, "", 200, nil, "", "", "", "", "", true, int64(1690000000)))

	records, err := repo.FindByTokenHash(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id, records[0].ObjectId)
	assert.Equal(t, "login", records[0].Action)
	assert.Equal(t, "signup", records[0].ExpectedAction)
	require.NotNil(t, records[0].Score)
	assert.Equal(t, 0.3, *records[0].Score)
	assert.Nil(t, records[1].Score)
	assert.True(t, records[1].Bypassed)
	require.NoError(t, mock.ExpectationsWereMet())
}
