package memorystore

import (
	"testing"

	"github.com/shopspring/decimal"
)

// go test -v --run TestOrderStoreUpdatesInPlace
func TestOrderStoreUpdatesInPlace(t *testing.T) {
	store, err := NewOrderStore(4)
	if err != nil {
		t.Fatal(err)
	}

	base := Order{
		OrderID:    "o-1",
		Symbol:     "BTCUSDT",
		Side:       "Buy",
		OrderType:  "Limit",
		Status:     "New",
		Price:      decimal.RequireFromString("30000"),
		Qty:        decimal.RequireFromString("1"),
		CumExecQty: decimal.Zero,
	}
	store.Add(base)
	store.Add(Order{OrderID: "o-2", Symbol: "ETHUSDT", Status: "New"})

	filled := base
	filled.Status = "PartiallyFilled"
	filled.CumExecQty = decimal.RequireFromString("0.4")
	got, err := store.Add(filled)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "PartiallyFilled" || !got.Remaining().Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("unexpected order state: %+v", got)
	}

	if store.CountAll() != 2 {
		t.Errorf("update added a record: %d", store.CountAll())
	}
	if orders := store.GetBySymbol("BTCUSDT"); len(orders) != 1 || orders[0].Status != "PartiallyFilled" {
		t.Errorf("unexpected BTCUSDT orders: %+v", orders)
	}
	if fresh := store.Fresh("BTCUSDT", 0); len(fresh) != 1 {
		t.Errorf("expected 1 fresh order, got %d", len(fresh))
	}
}

// go test -v --run TestOrderStoreRejectsMissingID
func TestOrderStoreRejectsMissingID(t *testing.T) {
	store, _ := NewOrderStore(4)
	if _, err := store.Add(Order{Symbol: "BTCUSDT"}); err == nil {
		t.Fatal("expected error for order without id")
	}
	if _, ok := store.Get("BTCUSDT", ""); ok {
		t.Error("malformed order was cached")
	}
}
