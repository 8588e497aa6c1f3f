package memorystore

// MemoryTradeStore keeps the most recent public trades of all symbols in one shared
// buffer. Trades replayed after a reconnect are recognized by their id and not cached twice.
type MemoryTradeStore struct {
	store *recordStore[Trade]
}

// NewTradeStore returns a store holding up to limit trades across all symbols.
func NewTradeStore(limit int) (*MemoryTradeStore, error) {
	store, err := newRecordStore(limit, tradeSymbol, tradeID, (*Trade).Equal)
	if err != nil {
		return nil, err
	}
	return &MemoryTradeStore{store: store}, nil
}

// Add caches t and returns the trade now cached under its symbol and id.
func (s *MemoryTradeStore) Add(t Trade) (Trade, error) { return s.store.add(t) }

// Get returns the cached trade with the given id.
func (s *MemoryTradeStore) Get(symbol, id string) (Trade, bool) { return s.store.get(symbol, id) }

// GetBySymbol returns the cached trades of symbol in arrival order.
func (s *MemoryTradeStore) GetBySymbol(symbol string) []Trade { return s.store.bySymbol(symbol) }

// Fresh returns up to limit trades of symbol that arrived or changed since the previous call.
func (s *MemoryTradeStore) Fresh(symbol string, limit int) []Trade {
	return s.store.fresh(symbol, limit)
}

// GetAll returns every cached trade in arrival order.
func (s *MemoryTradeStore) GetAll() []Trade { return s.store.all() }

// Symbols returns the symbols with at least one cached trade.
func (s *MemoryTradeStore) Symbols() []string { return s.store.symbols() }

// CountAll returns the number of cached trades.
func (s *MemoryTradeStore) CountAll() int { return s.store.count() }
