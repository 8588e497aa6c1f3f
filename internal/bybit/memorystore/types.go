package memorystore

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	errMissingSymbol = errors.New("missing symbol")
	errMissingID     = errors.New("missing id")
	errMissingStart  = errors.New("missing start time")
)

// KlineMemory represents a kline with an attached trading symbol.
// Typically constructed by combining topic metadata (e.g., "kline.1.BTCUSDT") with the kline payload.
type KlineMemory struct {
	Symbol string `json:"symbol"` // Trading symbol (e.g., "BTCUSDT")
	Kline
}

// Kline represents a single candlestick (1m, 5m, etc.) received from the Bybit WebSocket stream.
// A kline keeps arriving with the same Start while it is forming; Confirm flips to true
// on the last update of the interval.
type Kline struct {
	Start     int64  `json:"start"`     // Start time of the kline (in milliseconds since epoch)
	End       int64  `json:"end"`       // End time of the kline (in milliseconds since epoch)
	Interval  string `json:"interval"`  // Interval of the kline (e.g., "1", "5", "15") in minutes
	Open      string `json:"open"`      // Opening price
	Close     string `json:"close"`     // Closing price
	High      string `json:"high"`      // Highest price during the interval
	Low       string `json:"low"`       // Lowest price during the interval
	Volume    string `json:"volume"`    // Trade volume (number of units traded)
	Turnover  string `json:"turnover"`  // Total traded value (usually in USD)
	Confirm   bool   `json:"confirm"`   // Whether the kline is finalized (true when the interval closes)
	Timestamp int64  `json:"timestamp"` // Time when the event was generated (in milliseconds since epoch)
}

// klineStart keys a kline on its start time.
func klineStart(k *Kline) (int64, error) {
	if k.Start <= 0 {
		return 0, errMissingStart
	}
	return k.Start, nil
}

// Trade is a single public execution.
type Trade struct {
	ID         string          `json:"id"`         // Trade ID, unique per symbol
	Symbol     string          `json:"symbol"`     // e.g. "BTCUSDT"
	Side       string          `json:"side"`       // "Buy" or "Sell" (taker side)
	Price      decimal.Decimal `json:"price"`      // Execution price
	Size       decimal.Decimal `json:"size"`       // Executed quantity
	Timestamp  int64           `json:"timestamp"`  // Execution time (ms since epoch)
	BlockTrade bool            `json:"blockTrade"` // Whether it was a block trade
}

func tradeSymbol(t *Trade) (string, error) {
	if t.Symbol == "" {
		return "", errMissingSymbol
	}
	return t.Symbol, nil
}

func tradeID(t *Trade) (string, error) {
	if t.ID == "" {
		return "", errMissingID
	}
	return t.ID, nil
}

// Equal compares trades field by field; decimals compare by value, not by representation.
func (t *Trade) Equal(o *Trade) bool {
	return t.ID == o.ID &&
		t.Symbol == o.Symbol &&
		t.Side == o.Side &&
		t.Price.Equal(o.Price) &&
		t.Size.Equal(o.Size) &&
		t.Timestamp == o.Timestamp &&
		t.BlockTrade == o.BlockTrade
}

// Order is the latest known state of one order.
type Order struct {
	OrderID     string          `json:"orderId"`
	OrderLinkID string          `json:"orderLinkId"`
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	OrderType   string          `json:"orderType"`
	Status      string          `json:"orderStatus"`
	Price       decimal.Decimal `json:"price"`
	Qty         decimal.Decimal `json:"qty"`
	CumExecQty  decimal.Decimal `json:"cumExecQty"`
	AvgPrice    decimal.Decimal `json:"avgPrice"`
	CreatedTime int64           `json:"createdTime"`
	UpdatedTime int64           `json:"updatedTime"`
}

func orderSymbol(o *Order) (string, error) {
	if o.Symbol == "" {
		return "", errMissingSymbol
	}
	return o.Symbol, nil
}

func orderID(o *Order) (string, error) {
	if o.OrderID == "" {
		return "", errMissingID
	}
	return o.OrderID, nil
}

// Equal compares orders field by field.
func (o *Order) Equal(x *Order) bool {
	return o.OrderID == x.OrderID &&
		o.OrderLinkID == x.OrderLinkID &&
		o.Symbol == x.Symbol &&
		o.Side == x.Side &&
		o.OrderType == x.OrderType &&
		o.Status == x.Status &&
		o.Price.Equal(x.Price) &&
		o.Qty.Equal(x.Qty) &&
		o.CumExecQty.Equal(x.CumExecQty) &&
		o.AvgPrice.Equal(x.AvgPrice) &&
		o.CreatedTime == x.CreatedTime &&
		o.UpdatedTime == x.UpdatedTime
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() decimal.Decimal {
	return o.Qty.Sub(o.CumExecQty)
}
