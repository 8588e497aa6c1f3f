package snapshot

import (
	"context"

	"streamcache/config"
	"streamcache/pkg/bybit"

	"go.uber.org/zap"
)

// SymbolSource lists tradable symbols.
type SymbolSource interface {
	GetUSDTAltcoinSymbols(ctx context.Context) ([]string, error)
}

type SymbolLoader struct {
	Cfg        config.Config
	RestClient SymbolSource
	Logger     *zap.Logger
}

// NewSymbolLoader returns a loader backed by the Bybit REST API.
func NewSymbolLoader(cfg config.Config, rest *bybit.RESTClient, logger *zap.Logger) *SymbolLoader {
	return &SymbolLoader{Cfg: cfg, RestClient: rest, Logger: logger}
}

// LoadSymbols fetches USDT-margined altcoin trading pairs from Bybit
// and streams them into the provided channel.
// The REST request is bounded by the configured REST timeout.
func (l *SymbolLoader) LoadSymbols(ctx context.Context, ch chan<- string) error {
	defer close(ch) // Ensure downstream consumers can exit cleanly

	ctx, cancel := context.WithTimeout(ctx, l.Cfg.Bybit.REST.Timeout)
	defer cancel()

	symbols, err := l.RestClient.GetUSDTAltcoinSymbols(ctx)
	if err != nil {
		l.Logger.Error("failed to load USDT altcoin symbols", zap.Error(err))
		return err
	}
	l.Logger.Info("loaded symbols", zap.Int("count", len(symbols)))

	for _, symbol := range symbols {
		select {
		case ch <- symbol:
		case <-ctx.Done():
			l.Logger.Warn("symbol streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	return nil
}
