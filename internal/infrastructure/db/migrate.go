package db

import (
	"context"
	"fmt"

	"upload-finalizer/migrations"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Migrate applies the registered Go migrations. dialect is a goose dialect,
// "postgres" in production and "sqlite3" in tests.
func Migrate(ctx context.Context, database *gorm.DB, dialect string) error {
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("sql.DB: %w", err)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	migrations.SetDialect(dialect)
	goose.SetBaseFS(nil)
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
