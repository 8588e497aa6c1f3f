package symbolmeta

import (
	"context"
	"time"

	"streamcache/internal/bybit/snapshot"

	"go.uber.org/zap"
)

type MidnightLoader struct {
	Load func(ctx context.Context) <-chan string
}

func DefaultLoadFn(loader *snapshot.SymbolLoader) func(ctx context.Context) <-chan string {
	return func(ctx context.Context) <-chan string {
		symbolCh := make(chan string, 100)

		go func() {
			if err := loader.LoadSymbols(ctx, symbolCh); err != nil {
				loader.Logger.Error("failed to load symbols", zap.Error(err))
			}
		}()

		return symbolCh
	}
}

// Start runs proc on a fresh symbol list at the next UTC midnight and then every 24 hours,
// until ctx is cancelled.
func (m *MidnightLoader) Start(ctx context.Context, proc func(<-chan string)) {
	go func() {
		// Wait until next UTC midnight
		timer := time.NewTimer(time.Until(nextMidnight(time.Now())))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// Then run once every 24 hours
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			m.runOnce(ctx, proc)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (m *MidnightLoader) runOnce(ctx context.Context, proc func(<-chan string)) {
	symbolCh := m.Load(ctx)
	proc(symbolCh)
}

func nextMidnight(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
