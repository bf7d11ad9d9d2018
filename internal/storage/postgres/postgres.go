package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code_auth/internal/config"
	"code_auth/internal/models"
	"code_auth/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresRepo struct {
	pool pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: p}, nil
}

func (r *PostgresRepo) SaveUser(ctx context.Context, email string, passHash []byte) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, email, passHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) User(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.User"

	query := `
		SELECT id, email, password_hash, COALESCE(refresh_token_hash, '')
		FROM users
		WHERE email = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, email), op)
}

func (r *PostgresRepo) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT id, email, password_hash, COALESCE(refresh_token_hash, '')
		FROM users
		WHERE id = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, id), op)
}

// * SetRefreshToken перезаписывает хеш текущего refresh токена.
// Пустой хеш означает, что активного refresh токена нет.
func (r *PostgresRepo) SetRefreshToken(ctx context.Context, userID int64, tokenHash string) error {
	const op = "storage.postgres.SetRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = NULLIF($1, ''), updated_at = NOW()
		WHERE id = $2;
	`

	tag, err := r.pool.Exec(ctx, query, tokenHash, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// * RotateRefreshToken заменяет хеш refresh токена, только если сейчас сохранен oldHash.
// Из двух параллельных ротаций одного токена проходит одна, вторая получает ErrStaleRefreshToken.
// Пустой newHash удаляет токен.
func (r *PostgresRepo) RotateRefreshToken(ctx context.Context, userID int64, oldHash, newHash string) error {
	const op = "storage.postgres.RotateRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = NULLIF($1, ''), updated_at = NOW()
		WHERE id = $2 AND refresh_token_hash = $3;
	`

	tag, err := r.pool.Exec(ctx, query, newHash, userID, oldHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrStaleRefreshToken
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) scanUser(row pgx.Row, op string) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PassHash,
		&u.RefreshTokenHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// * dsn формирует конфигурацию базы данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
