package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"streamcache/internal/bybit/memorystore"

	"github.com/redis/go-redis/v9"
)

// WindowPublisher stores the latest window of each cache under a key and
// announces the change on a pub/sub channel.
//
// Keys:    <prefix>:klines:<symbol>:<interval>, <prefix>:trades:<symbol>
// Channel: <prefix>:updates
type WindowPublisher struct {
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	channel string
}

// Update is the message published after a window is stored.
type Update struct {
	Kind     string `json:"kind"` // "klines" or "trades"
	Symbol   string `json:"symbol"`
	Interval string `json:"interval,omitempty"`
	Key      string `json:"key"`
	Count    int    `json:"count"`
	Ts       int64  `json:"ts_ms"`
}

// NewClient opens a client and pings the server.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewWindowPublisher(rdb *redis.Client, prefix string, ttl time.Duration) *WindowPublisher {
	if strings.TrimSpace(prefix) == "" {
		prefix = "streamcache"
	}
	return &WindowPublisher{
		rdb:     rdb,
		prefix:  prefix,
		ttl:     ttl,
		channel: prefix + ":updates",
	}
}

// Channel returns the pub/sub channel updates are published on.
func (p *WindowPublisher) Channel() string {
	return p.channel
}

func (p *WindowPublisher) klinesKey(symbol, interval string) string {
	return fmt.Sprintf("%s:klines:%s:%s", p.prefix, symbol, interval)
}

func (p *WindowPublisher) tradesKey(symbol string) string {
	return fmt.Sprintf("%s:trades:%s", p.prefix, symbol)
}

// PublishKlines stores klines as the current window of one series. Empty windows are skipped.
func (p *WindowPublisher) PublishKlines(ctx context.Context, symbol, interval string, klines []memorystore.Kline) error {
	if len(klines) == 0 {
		return nil
	}
	return p.publish(ctx, Update{
		Kind:     "klines",
		Symbol:   symbol,
		Interval: interval,
		Key:      p.klinesKey(symbol, interval),
		Count:    len(klines),
	}, klines)
}

// PublishTrades stores trades as the current window of one symbol. Empty windows are skipped.
func (p *WindowPublisher) PublishTrades(ctx context.Context, symbol string, trades []memorystore.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	return p.publish(ctx, Update{
		Kind:   "trades",
		Symbol: symbol,
		Key:    p.tradesKey(symbol),
		Count:  len(trades),
	}, trades)
}

func (p *WindowPublisher) publish(ctx context.Context, u Update, window any) error {
	payload, err := json.Marshal(window)
	if err != nil {
		return fmt.Errorf("marshal %s window: %w", u.Kind, err)
	}
	u.Ts = time.Now().UnixMilli()
	msg, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Set(ctx, u.Key, payload, p.ttl)
	pipe.Publish(ctx, p.channel, msg)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", u.Key, err)
	}
	return nil
}

func (p *WindowPublisher) Close() error {
	return p.rdb.Close()
}
