package stream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"streamcache/internal/bybit/memorystore"

	"go.uber.org/zap"
)

// KlineSink persists closed klines.
type KlineSink interface {
	SaveKline(ctx context.Context, symbol string, k memorystore.Kline) error
}

// Stores are the caches a handler writes into. Orders may be nil when no private
// stream is connected.
type Stores struct {
	Klines *memorystore.MemoryKlineStore
	Trades *memorystore.MemoryTradeStore
	Orders *memorystore.MemoryOrderStore
}

// MakeMessageHandler returns a function that handles incoming WebSocket messages by
// parsing them and appending every record to its cache. Closed klines are also
// handed to sink once, when they first arrive confirmed; sink may be nil.
func MakeMessageHandler(logger *zap.Logger, stores Stores, sink KlineSink) func(msg []byte) {
	return func(msg []byte) {
		// Step 1: Extract topic string for routing
		var meta struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(msg, &meta); err != nil {
			logger.Warn("failed to extract topic", zap.Error(err))
			return
		}

		// Step 2: Parse and cache by topic; other messages (pong, subscription acks) are ignored
		switch {
		case isKlineTopic(meta.Topic):
			handleKlines(logger, stores.Klines, sink, msg)
		case isTradeTopic(meta.Topic):
			handleTrades(logger, stores.Trades, msg)
		case isOrderTopic(meta.Topic) && stores.Orders != nil:
			handleOrders(logger, stores.Orders, msg)
		}
	}
}

func handleKlines(logger *zap.Logger, store *memorystore.MemoryKlineStore, sink KlineSink, msg []byte) {
	var parsed KlineMessage
	if err := json.Unmarshal(msg, &parsed); err != nil {
		logger.Warn("failed to parse kline payload", zap.Error(err))
		return
	}
	symbol := extractSymbolFromTopic(parsed.Topic) // e.g., "kline.1.BTCUSDT" → "BTCUSDT"

	for _, d := range parsed.Data {
		prev, seen := store.Get(symbol, d.Interval, d.Start)

		kline, err := store.Add(memorystore.KlineMemory{Symbol: symbol, Kline: d})
		if err != nil {
			logger.Warn("failed to cache kline", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		if sink == nil || !kline.Confirm || (seen && prev.Confirm) {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = sink.SaveKline(ctx, symbol, kline)
		cancel()
		if err != nil {
			logger.Warn("failed to persist kline", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func handleTrades(logger *zap.Logger, store *memorystore.MemoryTradeStore, msg []byte) {
	var parsed TradeMessage
	if err := json.Unmarshal(msg, &parsed); err != nil {
		logger.Warn("failed to parse trade payload", zap.Error(err))
		return
	}

	for _, d := range parsed.Data {
		trade, err := d.ToTrade()
		if err != nil {
			logger.Warn("failed to parse trade", zap.String("id", d.ID), zap.Error(err))
			continue
		}
		if _, err := store.Add(trade); err != nil {
			logger.Warn("failed to cache trade", zap.String("id", d.ID), zap.Error(err))
		}
	}
}

func handleOrders(logger *zap.Logger, store *memorystore.MemoryOrderStore, msg []byte) {
	var parsed OrderMessage
	if err := json.Unmarshal(msg, &parsed); err != nil {
		logger.Warn("failed to parse order payload", zap.Error(err))
		return
	}

	for _, d := range parsed.Data {
		order, err := d.ToOrder()
		if err != nil {
			logger.Warn("failed to parse order", zap.String("orderId", d.OrderID), zap.Error(err))
			continue
		}
		if _, err := store.Add(order); err != nil {
			logger.Warn("failed to cache order", zap.String("orderId", d.OrderID), zap.Error(err))
		}
	}
}

// isKlineTopic returns true if the topic string indicates a kline stream.
func isKlineTopic(topic string) bool {
	return strings.HasPrefix(topic, "kline.")
}

func isTradeTopic(topic string) bool {
	return strings.HasPrefix(topic, "publicTrade.")
}

// isOrderTopic matches "order" and its category variants such as "order.linear".
func isOrderTopic(topic string) bool {
	return topic == "order" || strings.HasPrefix(topic, "order.")
}

// extractSymbolFromTopic parses the symbol from a topic like "kline.1.BTCUSDT".
func extractSymbolFromTopic(topic string) string {
	parts := strings.Split(topic, ".")
	if len(parts) == 3 {
		return parts[2]
	}
	return ""
}
