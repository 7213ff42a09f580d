// Package pgtest opens a migrated, throwaway Postgres schema for repository
// tests. Tests are skipped unless PARLOUR_TEST_DATABASE_URL is set.
package pgtest

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/utiibeauty/parlour/libs/db"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
)

// EnvURL names the variable holding the test database URL, in postgres://
// form.
const EnvURL = "PARLOUR_TEST_DATABASE_URL"

// Open returns a pool whose search_path points at a fresh schema with every
// migration applied. The schema is dropped when the test ends.
func Open(t *testing.T) *db.Pool {
	t.Helper()
	raw := os.Getenv(EnvURL)
	if raw == "" {
		t.Skipf("%s not set", EnvURL)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := db.Open(ctx, raw, db.PoolOptions{MaxConns: 2})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec(ctx, `CREATE SCHEMA `+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := admin.Exec(ctx, `DROP SCHEMA `+schema+` CASCADE`); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	scoped, err := withSearchPath(raw, schema)
	if err != nil {
		t.Fatalf("scope url: %v", err)
	}
	pool, err := db.Open(ctx, scoped, db.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("connect to %s: %v", schema, err)
	}
	t.Cleanup(pool.Close)

	if _, err := storage.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// withSearchPath adds search_path as a runtime parameter, which pgx sends on
// every new connection.
func withSearchPath(raw, schema string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
