package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

// go test -v --run TestLoadAppliesDefaults
func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("config value not read: %q", cfg.Log.Level)
	}
	if cfg.Cache.KlinesLimit != 1000 || cfg.Cache.PublishInterval != 5*time.Second {
		t.Errorf("defaults not applied: %+v", cfg.Cache)
	}
	if cfg.Bybit.WS.PingInterval != 20*time.Second {
		t.Errorf("unexpected ping interval: %v", cfg.Bybit.WS.PingInterval)
	}
}

// go test -v --run TestLoadRejectsNonPositiveLimit
func TestLoadRejectsNonPositiveLimit(t *testing.T) {
	dir := writeConfig(t, "cache:\n  trades_limit: 0\n")

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "trades_limit") {
		t.Fatalf("expected trades_limit error, got %v", err)
	}
}

// go test -v --run TestLoadEnvOverride
func TestLoadEnvOverride(t *testing.T) {
	dir := writeConfig(t, "cache:\n  klines_limit: 10\n")
	t.Setenv("CACHE_KLINES_LIMIT", "42")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.KlinesLimit != 42 {
		t.Errorf("env override ignored: %d", cfg.Cache.KlinesLimit)
	}
}

// go test -v --run TestLoadMissingFile
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing config.yaml")
	}
}

// go test -v --run TestValidateRedis
func TestValidateRedis(t *testing.T) {
	cfg := Config{
		Bybit: BybitConfig{WS: WSConfig{URL: "wss://example"}},
		Cache: CacheConfig{KlinesLimit: 1, TradesLimit: 1, OrdersLimit: 1, PublishInterval: time.Second, StatusInterval: time.Second},
		Redis: RedisConfig{Enabled: true},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled redis without addr")
	}
	cfg.Redis.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// go test -v --run TestPostgresDSN
func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		DBName:   "streamcache",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	want := "host=localhost port=5432 user=postgres password=pw dbname=streamcache sslmode=disable TimeZone=UTC"
	if got := cfg.DSN("dev"); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
	if got := cfg.AdminDSN(); !strings.Contains(got, "dbname=postgres") {
		t.Errorf("admin DSN should target the postgres database: %q", got)
	}
}
