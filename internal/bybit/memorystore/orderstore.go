package memorystore

// MemoryOrderStore keeps the latest state of recent orders. An order update replaces
// the cached order's fields without moving it.
type MemoryOrderStore struct {
	store *recordStore[Order]
}

func NewOrderStore(limit int) (*MemoryOrderStore, error) {
	store, err := newRecordStore(limit, orderSymbol, orderID, (*Order).Equal)
	if err != nil {
		return nil, err
	}
	return &MemoryOrderStore{store: store}, nil
}

func (s *MemoryOrderStore) Add(o Order) (Order, error) { return s.store.add(o) }

func (s *MemoryOrderStore) Get(symbol, orderID string) (Order, bool) {
	return s.store.get(symbol, orderID)
}

func (s *MemoryOrderStore) GetBySymbol(symbol string) []Order { return s.store.bySymbol(symbol) }

func (s *MemoryOrderStore) Fresh(symbol string, limit int) []Order {
	return s.store.fresh(symbol, limit)
}

func (s *MemoryOrderStore) CountAll() int { return s.store.count() }
