package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"streamcache/config"
	"streamcache/internal/bybit/memorystore"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	klines map[string][]memorystore.Kline
	trades map[string][]memorystore.Trade
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		klines: make(map[string][]memorystore.Kline),
		trades: make(map[string][]memorystore.Trade),
	}
}

func (p *recordingPublisher) PublishKlines(ctx context.Context, symbol, interval string, klines []memorystore.Kline) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.klines[symbol+"/"+interval] = klines
	return nil
}

func (p *recordingPublisher) PublishTrades(ctx context.Context, symbol string, trades []memorystore.Trade) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades[symbol] = trades
	return nil
}

func newTestCollector(t *testing.T) (*Collector, *recordingPublisher) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Bybit.WS.Interval = "1"
	cfg.Cache.KlinesLimit = 3
	cfg.Cache.TradesLimit = 10
	cfg.Cache.OrdersLimit = 10
	cfg.Cache.StatusInterval = time.Second
	cfg.Cache.PublishInterval = time.Second

	klines, err := memorystore.NewKlineStore(cfg.Cache.KlinesLimit)
	if err != nil {
		t.Fatal(err)
	}
	trades, _ := memorystore.NewTradeStore(cfg.Cache.TradesLimit)
	orders, _ := memorystore.NewOrderStore(cfg.Cache.OrdersLimit)

	pub := newRecordingPublisher()
	c := &Collector{
		cfg:       cfg,
		logger:    zap.NewNop(),
		symbols:   memorystore.NewSymbolStore("1"),
		klines:    klines,
		trades:    trades,
		orders:    orders,
		publisher: pub,
	}
	c.symbols.Replace([]string{"BTCUSDT", "ETHUSDT"})
	return c, pub
}

func kline(symbol string, start int64, closePrice string) memorystore.KlineMemory {
	return memorystore.KlineMemory{
		Symbol: symbol,
		Kline: memorystore.Kline{
			Start: start, End: start + 59_999, Interval: "1",
			Open: "1", Close: closePrice, High: "2", Low: "1", Volume: "1", Turnover: "1",
		},
	}
}

// go test -v --run TestPublishOnlyChangedSeries
func TestPublishOnlyChangedSeries(t *testing.T) {
	c, pub := newTestCollector(t)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		if _, err := c.klines.Add(kline("BTCUSDT", i*60_000, "1")); err != nil {
			t.Fatal(err)
		}
	}
	c.publishOnce(ctx)

	window := pub.klines["BTCUSDT/1"]
	if len(window) != 3 || window[0].Start != 120_000 {
		t.Fatalf("expected the 3 newest klines, got %+v", window)
	}
	if _, ok := pub.klines["ETHUSDT/1"]; ok {
		t.Error("ETHUSDT has no klines and should not be published")
	}

	// Nothing changed: nothing is published again.
	delete(pub.klines, "BTCUSDT/1")
	c.publishOnce(ctx)
	if _, ok := pub.klines["BTCUSDT/1"]; ok {
		t.Error("unchanged series was published again")
	}

	// A merge into the forming kline counts as a change.
	if _, err := c.klines.Add(kline("BTCUSDT", 4*60_000, "1.5")); err != nil {
		t.Fatal(err)
	}
	c.publishOnce(ctx)
	window = pub.klines["BTCUSDT/1"]
	if len(window) != 3 || window[2].Close != "1.5" {
		t.Fatalf("expected merged kline in window, got %+v", window)
	}
}

// go test -v --run TestPublishTrades
func TestPublishTrades(t *testing.T) {
	c, pub := newTestCollector(t)

	for _, id := range []string{"a", "b"} {
		_, err := c.trades.Add(memorystore.Trade{
			ID: id, Symbol: "ETHUSDT", Side: "Sell",
			Price: decimal.NewFromInt(2000), Size: decimal.NewFromInt(1), Timestamp: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	c.publishOnce(context.Background())

	if got := pub.trades["ETHUSDT"]; len(got) != 2 || got[0].ID != "a" {
		t.Errorf("unexpected trade window: %+v", got)
	}
}

// go test -v --run TestDrainFresh
func TestDrainFresh(t *testing.T) {
	c, pub := newTestCollector(t)

	_, _ = c.klines.Add(kline("BTCUSDT", 60_000, "1"))
	_, _ = c.trades.Add(memorystore.Trade{ID: "x", Symbol: "BTCUSDT", Price: decimal.NewFromInt(1), Size: decimal.NewFromInt(1)})
	c.drainFresh()
	c.publishOnce(context.Background())

	if len(pub.klines) != 0 || len(pub.trades) != 0 {
		t.Errorf("warmed records should not be published: %v %v", pub.klines, pub.trades)
	}
}

// go test -v --run TestRefreshSymbolsKeepsSetOnEmptyLoad
func TestRefreshSymbolsKeepsSetOnEmptyLoad(t *testing.T) {
	c, _ := newTestCollector(t)

	ch := make(chan string)
	close(ch)
	c.refreshSymbols(ch)

	if got := c.symbols.GetAll(); len(got) != 2 {
		t.Errorf("expected symbols to be kept, got %v", got)
	}
}
