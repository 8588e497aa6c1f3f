package postgres_test

import (
	"os"
	"strconv"
	"testing"

	"streamcache/config"
)

// testConfig returns the local test database settings, or skips the test when
// POSTGRES_TEST_HOST is not set.
func testConfig(t *testing.T, dbName string) config.PostgresConfig {
	t.Helper()

	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set")
	}
	port, err := strconv.Atoi(os.Getenv("POSTGRES_TEST_PORT"))
	if err != nil {
		port = 5432
	}
	user := os.Getenv("POSTGRES_TEST_USER")
	if user == "" {
		user = "postgres"
	}

	return config.PostgresConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("POSTGRES_TEST_PASSWORD"),
		DBName:   dbName,
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
}
