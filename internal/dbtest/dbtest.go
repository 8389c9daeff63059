// Package dbtest connects repository tests to a disposable Postgres database.
package dbtest

import (
	"context"
	"os"
	"testing"

	"aura-taste/internal/db"
	"aura-taste/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool returns a migrated, emptied pool for TEST_DB_DSN and skips the test
// when the variable is unset. The pool is closed when the test ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, db.Options{})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(t, pool)
	return pool
}

// Reset truncates every table.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), `TRUNCATE orders, tokens, customers, branches, products, categories RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
