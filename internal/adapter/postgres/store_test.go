package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/Strob0t/TaskFlow/internal/adapter/postgres"
	"github.com/Strob0t/TaskFlow/internal/config"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore/kvstoretest"
)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) (*postgres.Store, string) {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := config.Defaults().Postgres
	cfg.DSN = dsn
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	store := postgres.NewStore(pool)
	t.Cleanup(func() { _ = store.Close() })
	return store, dsn
}

func TestStoreCompliance(t *testing.T) {
	store, _ := setupStore(t)
	kvstoretest.Run(t, store)
}

func TestStorePing(t *testing.T) {
	store, _ := setupStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMigrationVersion(t *testing.T) {
	_, dsn := setupStore(t)

	v, err := postgres.MigrationVersion(context.Background(), dsn)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if v < 1 {
		t.Errorf("version = %d, want >= 1 after RunMigrations", v)
	}
}
