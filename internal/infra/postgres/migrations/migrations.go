// Package migrations holds the Postgres schema of the service as bun migrations.
package migrations

import (
	"context"
	"embed"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

var Migrations = migrate.NewMigrations()

// sqlMigration runs one file from sql/. Migrations must be registered from files named
// <version>_<name>.go since bun takes the migration name from the caller.
func sqlMigration(name string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		query, err := sqlFiles.ReadFile("sql/" + name)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(query)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}
