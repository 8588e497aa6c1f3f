package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"streamcache/internal/bybit/memorystore"
	"streamcache/pkg/bybit"

	"go.uber.org/zap"
)

// maxConcurrentFetches bounds the REST requests in flight during warmup.
const maxConcurrentFetches = 5

// HistorySource fetches history to seed the caches with.
type HistorySource interface {
	GetKlines(ctx context.Context, category, symbol, interval string, start, end time.Time) ([]memorystore.Kline, error)
	GetRecentTrades(ctx context.Context, category, symbol string, limit int) ([]memorystore.Trade, error)
}

// Warmer seeds the kline and trade caches from REST before streaming starts.
type Warmer struct {
	Source     HistorySource
	Klines     *memorystore.MemoryKlineStore
	Trades     *memorystore.MemoryTradeStore
	Category   string
	Interval   string
	Window     time.Duration // kline history to load
	TradeLimit int           // recent trades per symbol; 0 skips trades
	Timeout    time.Duration // per request
	Logger     *zap.Logger
}

// Run warms every symbol and returns the number of symbols that loaded without errors.
// Failures are logged and do not stop the other symbols.
func (w *Warmer) Run(ctx context.Context, symbols []string) int {
	// only closed klines: stop right before the one still forming
	end := time.Now()
	if meta, err := bybit.ParseKlineInterval(w.Interval); err == nil {
		end = time.UnixMilli(meta.StartOf(end.UnixMilli()) - 1)
	}
	start := end.Add(-w.Window)

	var (
		wg  sync.WaitGroup
		ok  atomic.Int64
		sem = make(chan struct{}, maxConcurrentFetches)
	)
	for _, symbol := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return int(ok.Load())
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if w.warmSymbol(ctx, symbol, start, end) {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	w.Logger.Info("warmup finished", zap.Int("symbols", len(symbols)), zap.Int64("ok", ok.Load()))
	return int(ok.Load())
}

func (w *Warmer) warmSymbol(ctx context.Context, symbol string, start, end time.Time) bool {
	failed := false

	if w.Klines != nil && w.Window > 0 {
		reqCtx, cancel := context.WithTimeout(ctx, w.Timeout)
		klines, err := w.Source.GetKlines(reqCtx, w.Category, symbol, w.Interval, start, end)
		cancel()
		if err != nil {
			w.Logger.Warn("failed to fetch kline from REST", zap.String("symbol", symbol), zap.Error(err))
			failed = true
		}
		for _, k := range klines {
			if _, err := w.Klines.Add(memorystore.KlineMemory{Symbol: symbol, Kline: k}); err != nil {
				w.Logger.Warn("failed to cache kline", zap.String("symbol", symbol), zap.Error(err))
				failed = true
			}
		}
	}

	if w.Trades != nil && w.TradeLimit > 0 {
		reqCtx, cancel := context.WithTimeout(ctx, w.Timeout)
		trades, err := w.Source.GetRecentTrades(reqCtx, w.Category, symbol, w.TradeLimit)
		cancel()
		if err != nil {
			w.Logger.Warn("failed to fetch trades from REST", zap.String("symbol", symbol), zap.Error(err))
			failed = true
		}
		for _, t := range trades {
			if _, err := w.Trades.Add(t); err != nil {
				w.Logger.Warn("failed to cache trade", zap.String("symbol", symbol), zap.Error(err))
				failed = true
			}
		}
	}

	if failed {
		w.Logger.Warn("finished with errors for symbol", zap.String("symbol", symbol))
	} else {
		w.Logger.Debug("completed successfully for symbol", zap.String("symbol", symbol))
	}
	return !failed
}
