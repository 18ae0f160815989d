package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refeera/internal/user/models"
	"refeera/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresCreate(t *testing.T) {
	store, mock := newMockStore(t)
	u := models.NewUser("jane", "jane@example.com", "hash", time.Now())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(u.ID, "jane", "jane@example.com", "hash", false, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Create(context.Background(), u))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	assert.ErrorIs(t, store.Create(context.Background(), u), sentinel.ErrAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	cols := []string{"id", "username", "email", "password_hash", "is_verified", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", "jane", "jane@example.com", "hash", true, now, now))
	u, err := store.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Equal(t, "hash", u.PasswordHash)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("none@example.com").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = store.FindByEmail(context.Background(), "none@example.com")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), models.NewUser("x", "x@example.com", "h", time.Now()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
