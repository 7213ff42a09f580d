package storage

import (
	"context"
	"embed"
	"io/fs"

	"github.com/utiibeauty/parlour/libs/db"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the parlour schema up to date.
func Migrate(ctx context.Context, pool *db.Pool) ([]string, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return db.Migrate(ctx, pool, sub)
}
