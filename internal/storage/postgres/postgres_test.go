package postgres

import (
	"context"
	"errors"
	"testing"

	"code_auth/internal/config"
	"code_auth/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	return &PostgresRepo{pool: mock}, mock
}

func TestSaveUser_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash\)`).
		WithArgs("new@x.com", []byte("hash")).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.SaveUser(context.Background(), "new@x.com", []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestSaveUser_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("dup@x.com", []byte("hash")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.SaveUser(context.Background(), "dup@x.com", []byte("hash"))
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestSaveUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@x.com", []byte("hash")).
		WillReturnError(errors.New("db down"))

	_, err := repo.SaveUser(context.Background(), "a@x.com", []byte("hash"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrUserExists)
	assert.Contains(t, err.Error(), "db down")
}

func TestUser_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "email", "password_hash", "refresh_token_hash"}).
				AddRow(int64(1), "a@x.com", []byte("hash"), "digest"),
		)

	u, err := repo.User(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, []byte("hash"), u.PassHash)
	assert.Equal(t, "digest", u.RefreshTokenHash)
}

func TestUser_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
		WithArgs("none@x.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.User(context.Background(), "none@x.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UserByID(context.Background(), 9)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSetRefreshToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("digest", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetRefreshToken(context.Background(), 1, "digest"))
}

func TestSetRefreshToken_NoRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("digest", int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetRefreshToken(context.Background(), 2, "digest")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)UPDATE users.*WHERE id = \$2 AND refresh_token_hash = \$3`).
		WithArgs("new-digest", int64(1), "old-digest").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.RotateRefreshToken(context.Background(), 1, "old-digest", "new-digest"))
}

func TestRotateRefreshToken_Stale(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("new-digest", int64(1), "old-digest").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.RotateRefreshToken(context.Background(), 1, "old-digest", "new-digest")
	assert.ErrorIs(t, err, storage.ErrStaleRefreshToken)
}

func TestRotateRefreshToken_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("", int64(1), "old-digest").
		WillReturnError(errors.New("conn reset"))

	err := repo.RotateRefreshToken(context.Background(), 1, "old-digest", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrStaleRefreshToken)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{Postgres: config.Postgres{
		Host: "db", Port: 5433, User: "u", Password: "p", DBName: "auth", SSLMode: "disable",
	}}

	assert.Equal(t, "host=db port=5433 user=u password=p database=auth sslmode=disable", dsn(cfg))
}
