package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamcache/config"
	"streamcache/internal/bybit/memorystore"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu       sync.Mutex
	symbols  []string
	failFor  string
	requests []string
}

func (f *fakeSource) GetUSDTAltcoinSymbols(ctx context.Context) ([]string, error) {
	if f.symbols == nil {
		return nil, errors.New("unavailable")
	}
	return f.symbols, nil
}

func (f *fakeSource) GetKlines(ctx context.Context, category, symbol, interval string, start, end time.Time) ([]memorystore.Kline, error) {
	f.mu.Lock()
	f.requests = append(f.requests, "klines:"+symbol)
	f.mu.Unlock()
	if symbol == f.failFor {
		return nil, errors.New("boom")
	}
	return []memorystore.Kline{
		{Start: 60_000, End: 119_999, Interval: interval, Open: "1", Close: "1", High: "1", Low: "1", Volume: "0", Turnover: "0", Confirm: true},
		{Start: 120_000, End: 179_999, Interval: interval, Open: "1", Close: "2", High: "2", Low: "1", Volume: "3", Turnover: "4", Confirm: true},
	}, nil
}

func (f *fakeSource) GetRecentTrades(ctx context.Context, category, symbol string, limit int) ([]memorystore.Trade, error) {
	f.mu.Lock()
	f.requests = append(f.requests, "trades:"+symbol)
	f.mu.Unlock()
	return []memorystore.Trade{
		{ID: symbol + "-1", Symbol: symbol, Side: "Buy", Price: decimal.NewFromInt(10), Size: decimal.NewFromInt(1), Timestamp: 1},
	}, nil
}

// go test -v --run TestLoadSymbols
func TestLoadSymbols(t *testing.T) {
	cfg := config.Config{}
	cfg.Bybit.REST.Timeout = time.Second
	loader := &SymbolLoader{Cfg: cfg, RestClient: &fakeSource{symbols: []string{"BTCUSDT", "ETHUSDT"}}, Logger: zap.NewNop()}

	ch := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- loader.LoadSymbols(context.Background(), ch) }()

	var got []string
	for s := range ch {
		got = append(got, s)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "BTCUSDT" || got[1] != "ETHUSDT" {
		t.Errorf("unexpected symbols: %v", got)
	}
}

// go test -v --run TestLoadSymbolsError
func TestLoadSymbolsError(t *testing.T) {
	cfg := config.Config{}
	cfg.Bybit.REST.Timeout = time.Second
	loader := &SymbolLoader{Cfg: cfg, RestClient: &fakeSource{}, Logger: zap.NewNop()}

	ch := make(chan string)
	if err := loader.LoadSymbols(context.Background(), ch); err == nil {
		t.Fatal("expected error")
	}
	if _, open := <-ch; open {
		t.Error("channel should be closed after an error")
	}
}

// go test -v --run TestWarmerRun
func TestWarmerRun(t *testing.T) {
	klines, _ := memorystore.NewKlineStore(10)
	trades, _ := memorystore.NewTradeStore(10)
	src := &fakeSource{failFor: "BADUSDT"}

	w := &Warmer{
		Source:     src,
		Klines:     klines,
		Trades:     trades,
		Category:   "linear",
		Interval:   "1",
		Window:     time.Hour,
		TradeLimit: 50,
		Timeout:    time.Second,
		Logger:     zap.NewNop(),
	}

	ok := w.Run(context.Background(), []string{"BTCUSDT", "ETHUSDT", "BADUSDT"})
	if ok != 2 {
		t.Errorf("expected 2 symbols warmed, got %d", ok)
	}
	if got := len(klines.GetBySymbol("BTCUSDT", "1")); got != 2 {
		t.Errorf("expected 2 BTCUSDT klines, got %d", got)
	}
	if got := len(klines.GetBySymbol("BADUSDT", "1")); got != 0 {
		t.Errorf("expected no BADUSDT klines, got %d", got)
	}
	// Trades are still loaded when the kline request fails.
	if got := trades.CountAll(); got != 3 {
		t.Errorf("expected 3 trades, got %d", got)
	}
	if len(src.requests) != 6 {
		t.Errorf("expected 6 requests, got %v", src.requests)
	}
}

// go test -v --run TestWarmerSkipsTrades
func TestWarmerSkipsTrades(t *testing.T) {
	klines, _ := memorystore.NewKlineStore(10)
	trades, _ := memorystore.NewTradeStore(10)
	src := &fakeSource{}

	w := &Warmer{Source: src, Klines: klines, Trades: trades, Interval: "1", Window: time.Hour, Timeout: time.Second, Logger: zap.NewNop()}
	w.Run(context.Background(), []string{"BTCUSDT"})

	if trades.CountAll() != 0 {
		t.Errorf("expected no trades, got %d", trades.CountAll())
	}
	if len(src.requests) != 1 {
		t.Errorf("expected only the kline request, got %v", src.requests)
	}
}
