package bybit

import (
	"strconv"

	"streamcache/internal/bybit/memorystore"
)

// RecentTrade is one entry of /v5/market/recent-trade.
type RecentTrade struct {
	ExecID       string `json:"execId"`
	Symbol       string `json:"symbol"`
	Price        string `json:"price"`
	Size         string `json:"size"`
	Side         string `json:"side"`
	Time         string `json:"time"`
	IsBlockTrade bool   `json:"isBlockTrade"`
}

// ToTrade converts a REST trade into the cached representation.
func (r RecentTrade) ToTrade() (memorystore.Trade, error) {
	price, err := parseDecimal("price", r.Price)
	if err != nil {
		return memorystore.Trade{}, err
	}
	size, err := parseDecimal("size", r.Size)
	if err != nil {
		return memorystore.Trade{}, err
	}
	ts, err := strconv.ParseInt(r.Time, 10, 64)
	if err != nil {
		return memorystore.Trade{}, err
	}

	return memorystore.Trade{
		ID:         r.ExecID,
		Symbol:     r.Symbol,
		Side:       r.Side,
		Price:      price,
		Size:       size,
		Timestamp:  ts,
		BlockTrade: r.IsBlockTrade,
	}, nil
}

// StreamTrade is one entry of a publicTrade.<symbol> WebSocket message.
type StreamTrade struct {
	T          int64  `json:"T"`  // trade time (ms)
	Symbol     string `json:"s"`  // symbol
	Side       string `json:"S"`  // taker side
	Size       string `json:"v"`  // size
	Price      string `json:"p"`  // price
	ID         string `json:"i"`  // trade id
	BlockTrade bool   `json:"BT"` // block trade
}

// ToTrade converts a streamed trade into the cached representation.
func (s StreamTrade) ToTrade() (memorystore.Trade, error) {
	price, err := parseDecimal("price", s.Price)
	if err != nil {
		return memorystore.Trade{}, err
	}
	size, err := parseDecimal("size", s.Size)
	if err != nil {
		return memorystore.Trade{}, err
	}

	return memorystore.Trade{
		ID:         s.ID,
		Symbol:     s.Symbol,
		Side:       s.Side,
		Price:      price,
		Size:       size,
		Timestamp:  s.T,
		BlockTrade: s.BlockTrade,
	}, nil
}

// StreamOrder is one entry of an "order" WebSocket message.
type StreamOrder struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	OrderStatus string `json:"orderStatus"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	CumExecQty  string `json:"cumExecQty"`
	AvgPrice    string `json:"avgPrice"`
	CreatedTime string `json:"createdTime"`
	UpdatedTime string `json:"updatedTime"`
}

// ToOrder converts a streamed order into the cached representation.
func (s StreamOrder) ToOrder() (memorystore.Order, error) {
	o := memorystore.Order{
		OrderID:     s.OrderID,
		OrderLinkID: s.OrderLinkID,
		Symbol:      s.Symbol,
		Side:        s.Side,
		OrderType:   s.OrderType,
		Status:      s.OrderStatus,
	}

	var err error
	if o.Price, err = parseDecimal("price", s.Price); err != nil {
		return o, err
	}
	if o.Qty, err = parseDecimal("qty", s.Qty); err != nil {
		return o, err
	}
	if o.CumExecQty, err = parseDecimal("cumExecQty", s.CumExecQty); err != nil {
		return o, err
	}
	if o.AvgPrice, err = parseDecimal("avgPrice", s.AvgPrice); err != nil {
		return o, err
	}
	if s.CreatedTime != "" {
		if o.CreatedTime, err = strconv.ParseInt(s.CreatedTime, 10, 64); err != nil {
			return o, err
		}
	}
	if s.UpdatedTime != "" {
		if o.UpdatedTime, err = strconv.ParseInt(s.UpdatedTime, 10, 64); err != nil {
			return o, err
		}
	}
	return o, nil
}
