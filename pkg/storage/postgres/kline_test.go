package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"streamcache/internal/bybit/memorystore"
	"streamcache/pkg/storage/postgres"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()

	client, err := postgres.InitializeAndMigrateKlineRecord(context.Background(), testConfig(t, "streamcache_test"), "dev", true)
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// go test -v --run TestKlineCRUD
func TestKlineCRUD(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	// Create
	now := time.Now().Truncate(time.Minute)
	record := &postgres.KlineRecord{
		Symbol:    "BTCUSDT",
		Interval:  "1h",
		Start:     now,
		End:       now.Add(time.Minute),
		Open:      decimal.RequireFromString("31400.0"),
		Close:     decimal.RequireFromString("31500.0"),
		High:      decimal.RequireFromString("31600.0"),
		Low:       decimal.RequireFromString("31300.0"),
		Volume:    decimal.RequireFromString("123.45"),
		Turnover:  decimal.RequireFromString("3890000.0"),
		Confirm:   true,
		Timestamp: time.Now(),
	}

	if err := client.InsertKline(ctx, record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Read
	got, err := client.GetKline(ctx, "BTCUSDT", "1h", now)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Symbol != "BTCUSDT" || !got.Open.Equal(decimal.NewFromInt(31400)) {
		t.Errorf("unexpected kline values: %+v", got)
	}

	// Update
	if err := client.UpdateKlineConfirm(ctx, got.ID, true); err != nil {
		t.Errorf("update confirm failed: %v", err)
	}

	// Re-fetch and check
	updated, err := client.GetKline(ctx, "BTCUSDT", "1h", now)
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if !updated.Confirm {
		t.Errorf("confirm was not updated")
	}

	// Delete
	if err := client.DeleteOldKlines(ctx, time.Now().Add(1*time.Hour)); err != nil {
		t.Errorf("delete failed: %v", err)
	}

	// Check deletion
	_, err = client.GetKline(ctx, "BTCUSDT", "1h", now)
	if err == nil {
		t.Error("expected error after delete, got nil")
	}
}

// go test -v --run TestKlineDuplicate
func TestKlineDuplicate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	start := time.Now().Add(-48 * time.Hour).Truncate(time.Minute)
	k := memorystore.Kline{
		Start:     start.UnixMilli(),
		End:       start.Add(time.Minute).UnixMilli() - 1,
		Interval:  "1",
		Open:      "1.5",
		Close:     "1.6",
		High:      "1.7",
		Low:       "1.4",
		Volume:    "10",
		Turnover:  "15.5",
		Confirm:   true,
		Timestamp: start.Add(time.Minute).UnixMilli(),
	}
	defer client.DeleteOldKlines(ctx, start.Add(time.Second))

	record, err := postgres.ToKlineRecord("DUPUSDT", k)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if err := client.InsertKline(ctx, record); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	again, _ := postgres.ToKlineRecord("DUPUSDT", k)
	if err := client.InsertKline(ctx, again); !errors.Is(err, postgres.ErrDuplicateKline) {
		t.Fatalf("expected ErrDuplicateKline, got %v", err)
	}
	if err := client.SaveKline(ctx, "DUPUSDT", k); err != nil {
		t.Fatalf("SaveKline should swallow duplicates, got %v", err)
	}
}

// go test -v --run TestToKlineRecord
func TestToKlineRecord(t *testing.T) {
	k := memorystore.Kline{
		Start:     1_700_000_000_000,
		End:       1_700_000_299_999,
		Interval:  "5",
		Open:      "100.5",
		Close:     "101",
		High:      "102.25",
		Low:       "99",
		Volume:    "12",
		Turnover:  "1212.5",
		Confirm:   true,
		Timestamp: 1_700_000_300_000,
	}

	record, err := postgres.ToKlineRecord("ETHUSDT", k)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Interval != "5m" {
		t.Errorf("expected interval 5m, got %s", record.Interval)
	}
	if !record.Start.Equal(time.UnixMilli(k.Start)) || !record.End.Equal(time.UnixMilli(k.End)) {
		t.Errorf("unexpected bounds: %v - %v", record.Start, record.End)
	}
	if record.Open.String() != "100.5" || record.High.String() != "102.25" || record.Turnover.String() != "1212.5" {
		t.Errorf("unexpected values: %+v", record)
	}

	k.Interval = "7"
	if _, err := postgres.ToKlineRecord("ETHUSDT", k); err == nil {
		t.Error("expected error for unknown interval")
	}

	k.Interval = "5"
	k.Close = "n/a"
	if _, err := postgres.ToKlineRecord("ETHUSDT", k); err == nil {
		t.Error("expected error for malformed price")
	}
}
