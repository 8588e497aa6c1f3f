package postgres_test

import (
	"context"
	"testing"

	"streamcache/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	cfg := testConfig(t, "test_kline_db")

	if err := postgres.CreateDatabase(context.Background(), cfg); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	// A second call finds the database and leaves it alone.
	if err := postgres.CreateDatabase(context.Background(), cfg); err != nil {
		t.Fatalf("second create failed: %v", err)
	}
}
