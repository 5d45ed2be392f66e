package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateFailedTasks, downCreateFailedTasks)
}

func upCreateFailedTasks(ctx context.Context, tx *sql.Tx) error {
	id, blob, timestamp := "BIGSERIAL PRIMARY KEY", "BYTEA", "TIMESTAMPTZ"
	if dialect == DialectSQLite {
		id, blob, timestamp = "INTEGER PRIMARY KEY AUTOINCREMENT", "BLOB", "DATETIME"
	}

	createFailedTasksTable := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS failed_tasks (
		id %s,
		task_id VARCHAR(64) NOT NULL,
		request_id VARCHAR(255) NOT NULL,
		quarantine_path VARCHAR(1024) NOT NULL,
		is_update BOOLEAN NOT NULL DEFAULT FALSE,
		attempts INTEGER NOT NULL,
		last_error TEXT NOT NULL,
		payload %s NOT NULL,
		created_at %s DEFAULT CURRENT_TIMESTAMP
	);
	`, id, blob, timestamp)
	if _, err := tx.ExecContext(ctx, createFailedTasksTable); err != nil {
		return fmt.Errorf("could not create failed_tasks table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_failed_tasks_task_id ON failed_tasks (task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_failed_tasks_request_id ON failed_tasks (request_id);`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not create index: %w", err)
		}
	}
	return nil
}

func downCreateFailedTasks(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS failed_tasks;`); err != nil {
		return fmt.Errorf("could not drop table failed_tasks: %w", err)
	}
	return nil
}
