package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies the schema for the connection's driver. Statements are
// idempotent, so it runs on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	name := "schema/" + db.DriverName() + ".sql"
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	if _, err := db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
