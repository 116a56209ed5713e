package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationSQL returns every embedded migration in apply order
func MigrationSQL() (string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return "", err
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return "", err
		}
		sb.WriteString("-- ")
		sb.WriteString(name)
		sb.WriteString("\n")
		sb.Write(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Migrate applies the embedded schema. Statements are idempotent so the
// migration can run on every start when postgres.auto_migrate is set.
func (db *DB) Migrate(ctx context.Context) error {
	schema, err := MigrationSQL()
	if err != nil {
		return err
	}

	return db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := db.GetQuerier(ctx).ExecContext(ctx, schema); err != nil {
			return ClassifyError(err, "failed to apply migrations")
		}
		db.logger.Infow("database schema is up to date")
		return nil
	})
}
