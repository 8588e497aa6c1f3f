package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamcache/config"
)

// go test -v --run TestNewRejectsLevel
func TestNewRejectsLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

// go test -v --run TestNewWritesFile
func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "collector.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", OutputFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("cache ready")
	_ = log.Sync()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

// go test -v --run TestNewTagsEnvironment
func TestNewTagsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", Environment: "prod", OutputFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("cache ready")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"env":"prod"`) {
		t.Errorf("env field missing from %s", data)
	}
}
