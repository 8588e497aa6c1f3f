package collector

import (
	"context"
	"fmt"
	"time"

	"streamcache/config"
	"streamcache/internal/bybit/memorystore"
	"streamcache/internal/bybit/snapshot"
	"streamcache/internal/bybit/stream"
	"streamcache/internal/bybit/symbolmeta"
	"streamcache/pkg/bybit"
	"streamcache/pkg/storage/postgres"
	redisstore "streamcache/pkg/storage/redis"

	"go.uber.org/zap"
)

// recentTradesLimit is the number of trades fetched per symbol at startup.
const recentTradesLimit = 500

// WindowPublisher receives cache windows that changed since the last publish.
type WindowPublisher interface {
	PublishKlines(ctx context.Context, symbol, interval string, klines []memorystore.Kline) error
	PublishTrades(ctx context.Context, symbol string, trades []memorystore.Trade) error
}

// Collector owns the caches and the clients that feed and drain them.
type Collector struct {
	cfg    *config.Config
	logger *zap.Logger

	rest    *bybit.RESTClient
	ws      *bybit.WSClient
	symbols *memorystore.MemorySymbolStore
	klines  *memorystore.MemoryKlineStore
	trades  *memorystore.MemoryTradeStore
	orders  *memorystore.MemoryOrderStore

	sink      stream.KlineSink
	publisher WindowPublisher
	closers   []func() error
}

// New builds the caches from cfg.Cache and connects the optional Postgres and Redis backends.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Collector, error) {
	if _, err := bybit.ParseKlineInterval(cfg.Bybit.WS.Interval); err != nil {
		return nil, fmt.Errorf("bybit.ws.interval: %w", err)
	}

	c := &Collector{
		cfg:     cfg,
		logger:  logger,
		rest:    bybit.NewRESTClient(cfg.Bybit.REST.BaseURL, cfg.Bybit.REST.Timeout),
		symbols: memorystore.NewSymbolStore(cfg.Bybit.WS.Interval),
	}

	var err error
	if c.klines, err = memorystore.NewKlineStore(cfg.Cache.KlinesLimit); err != nil {
		return nil, err
	}
	if c.trades, err = memorystore.NewTradeStore(cfg.Cache.TradesLimit); err != nil {
		return nil, err
	}
	if c.orders, err = memorystore.NewOrderStore(cfg.Cache.OrdersLimit); err != nil {
		return nil, err
	}

	if cfg.Postgres.Enabled {
		// Initialize PostgreSQL Client
		pg, err := postgres.InitializeAndMigrateKlineRecord(ctx, cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		c.sink = pg
		c.closers = append(c.closers, pg.Close)
	}

	if cfg.Redis.Enabled {
		rdb, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		pub := redisstore.NewWindowPublisher(rdb, cfg.Redis.Prefix, cfg.Redis.TTL)
		c.publisher = pub
		c.closers = append(c.closers, pub.Close)
	}

	c.ws = bybit.NewWSClient(cfg.Bybit.WS.URL, cfg.Bybit.WS.PingInterval, c.symbols, logger)
	// The public stream never carries "order"; the route serves private feeds.
	c.ws.SetMessageHandler(stream.MakeMessageHandler(logger, stream.Stores{
		Klines: c.klines,
		Trades: c.trades,
		Orders: c.orders,
	}, c.sink))

	return c, nil
}

// Start runs the collector until ctx is cancelled. It loads symbols, warms the
// caches from REST, then streams klines and trades into them.
func Start(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	c, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Run(ctx)
}

// Run loads symbols, warms the caches and blocks on the WebSocket listener.
func (c *Collector) Run(ctx context.Context) error {
	loader := snapshot.NewSymbolLoader(*c.cfg, c.rest, c.logger)

	// Load symbol metadata asynchronously and wait for the store to drain it
	symbolCh := make(chan string, 100)
	done := c.symbols.StartWorker(symbolCh)
	if err := loader.LoadSymbols(ctx, symbolCh); err != nil {
		return fmt.Errorf("failed to load symbols: %w", err)
	}
	<-done

	warmer := &snapshot.Warmer{
		Source:     c.rest,
		Klines:     c.klines,
		Trades:     c.trades,
		Category:   c.cfg.Bybit.REST.Category,
		Interval:   c.cfg.Bybit.WS.Interval,
		Window:     c.cfg.Bybit.REST.Warmup,
		TradeLimit: min(recentTradesLimit, c.cfg.Cache.TradesLimit),
		Timeout:    c.cfg.Bybit.REST.Timeout,
		Logger:     c.logger,
	}
	warmer.Run(ctx, c.symbols.GetAll())
	// Warmup is not news to subscribers.
	c.drainFresh()

	// Connect to WebSocket with the list of symbols
	if err := c.ws.Connect(); err != nil {
		return err
	}

	go c.reportStatus(ctx)
	if c.publisher != nil {
		go c.publishLoop(ctx)
	}

	midnight := &symbolmeta.MidnightLoader{Load: symbolmeta.DefaultLoadFn(loader)}
	midnight.Start(ctx, c.refreshSymbols)

	c.ws.Listen(ctx)
	return nil
}

// refreshSymbols replaces the symbol set and updates the WebSocket subscription.
func (c *Collector) refreshSymbols(ch <-chan string) {
	var symbols []string
	for symbol := range ch {
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		c.logger.Warn("symbol refresh returned no symbols, keeping current set")
		return
	}

	c.symbols.Replace(symbols)
	if err := c.ws.Resubscribe(); err != nil {
		c.logger.Error("failed to resubscribe", zap.Error(err))
	}
}

// reportStatus periodically logs the cache sizes.
func (c *Collector) reportStatus(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Cache.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.logger.Info("cache status",
				zap.Int("symbols", len(c.symbols.GetAll())),
				zap.Int("klines", c.klines.CountAll()),
				zap.Int("trades", c.trades.CountAll()),
				zap.Int("orders", c.orders.CountAll()),
			)
		}
	}
}

func (c *Collector) publishLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Cache.PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.publishOnce(ctx)
		}
	}
}

// publishOnce publishes the window of every series that changed since the previous call.
func (c *Collector) publishOnce(ctx context.Context) {
	interval := c.cfg.Bybit.WS.Interval
	for _, symbol := range c.symbols.GetAll() {
		if fresh := c.klines.Fresh(symbol, interval); len(fresh) > 0 {
			window := c.klines.GetBySymbol(symbol, interval)
			if err := c.publisher.PublishKlines(ctx, symbol, interval, window); err != nil {
				c.logger.Warn("failed to publish klines", zap.String("symbol", symbol), zap.Error(err))
			}
		}
	}

	for _, symbol := range c.trades.Symbols() {
		if fresh := c.trades.Fresh(symbol, c.cfg.Cache.TradesLimit); len(fresh) > 0 {
			window := c.trades.GetBySymbol(symbol)
			if err := c.publisher.PublishTrades(ctx, symbol, window); err != nil {
				c.logger.Warn("failed to publish trades", zap.String("symbol", symbol), zap.Error(err))
			}
		}
	}
}

// drainFresh resets the change counters of every series.
func (c *Collector) drainFresh() {
	for _, symbol := range c.symbols.GetAll() {
		c.klines.Fresh(symbol, c.cfg.Bybit.WS.Interval)
	}
	for _, symbol := range c.trades.Symbols() {
		c.trades.Fresh(symbol, c.cfg.Cache.TradesLimit)
	}
}

// Close releases the storage backends.
func (c *Collector) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			c.logger.Warn("failed to close backend", zap.Error(err))
		}
	}
	c.closers = nil
}
