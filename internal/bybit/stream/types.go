package stream

import (
	"streamcache/internal/bybit/memorystore"
	"streamcache/pkg/bybit"
)

// KlineMessage represents a WebSocket message from Bybit containing kline (candlestick) data.
type KlineMessage struct {
	Topic string              `json:"topic"` // Topic string indicating the subscription stream, e.g., "kline.1.BTCUSDT"
	Data  []memorystore.Kline `json:"data"`  // Array of kline (candlestick) data entries
	Ts    int64               `json:"ts"`    // Timestamp (in milliseconds) when the message was received
	Type  string              `json:"type"`  // Message type, e.g., "snapshot" or "delta"
}

// TradeMessage carries public trades, e.g. topic "publicTrade.BTCUSDT".
type TradeMessage struct {
	Topic string              `json:"topic"`
	Data  []bybit.StreamTrade `json:"data"`
	Ts    int64               `json:"ts"`
	Type  string              `json:"type"`
}

// OrderMessage carries order updates from the private "order" topic.
type OrderMessage struct {
	Topic        string              `json:"topic"`
	ID           string              `json:"id"`
	CreationTime int64               `json:"creationTime"`
	Data         []bybit.StreamOrder `json:"data"`
}
