package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB returns a database connection pool for testing.
// Skips the test if TEST_DATABASE_URL is not set.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

// CleanupTables truncates all tables for a clean test state.
func CleanupTables(t *testing.T, db PGXDB) {
	t.Helper()

	ctx := context.Background()
	_, err := db.Exec(ctx, `
		TRUNCATE TABLE auditoria_movimientos, movimientos, opciones, medios_pago, categorias, usuarios
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// TestSchemaPool returns a pool bound to a fresh schema with the app tables
// migrated into it. Rows committed through it stay out of the shared tables
// that TestTx truncates. The schema is dropped on cleanup.
// Skips the test if TEST_DATABASE_URL is not set.
func TestSchemaPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	admin := TestPool(t)
	ctx := context.Background()

	schema := fmt.Sprintf("caja_test_%d", time.Now().UnixNano())
	quoted := pgx.Identifier{schema}.Sanitize()
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+quoted); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	cfg, err := pgxpool.ParseConfig(os.Getenv("TEST_DATABASE_URL"))
	if err != nil {
		t.Fatalf("failed to parse test database url: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to test schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if _, err := admin.Exec(context.Background(), "DROP SCHEMA "+quoted+" CASCADE"); err != nil {
			t.Errorf("failed to drop test schema: %v", err)
		}
	})

	if err := RunMigrations(ctx, pool); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return pool
}
