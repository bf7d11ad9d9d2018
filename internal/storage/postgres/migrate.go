package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"code_auth/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// * Migrate применяет встроенные миграции схемы через goose.
func Migrate(ctx context.Context, cfg *config.Config) error {
	const op = "storage.postgres.Migrate"

	db, err := sql.Open("pgx", dsn(cfg))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
