package memorystore

import (
	"fmt"
	"slices"
	"sync"
)

// MemorySymbolStore holds the symbols the collector subscribes to.
type MemorySymbolStore struct {
	mu         sync.Mutex
	symbols    []string
	WsInterval string // kline interval used for subscription topics, e.g. "1"
}

func NewSymbolStore(wsInterval string) *MemorySymbolStore {
	return &MemorySymbolStore{
		symbols:    make([]string, 0),
		WsInterval: wsInterval,
	}
}

// Add registers symbol once.
func (s *MemorySymbolStore) Add(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.symbols, symbol) {
		return
	}
	s.symbols = append(s.symbols, symbol)
}

// Replace swaps the whole symbol list, e.g. after a daily metadata refresh.
func (s *MemorySymbolStore) Replace(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = slices.Compact(slices.Sorted(slices.Values(symbols)))
}

// StartWorker drains ch into the store. The returned channel is closed once ch is closed.
func (s *MemorySymbolStore) StartWorker(ch <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for symbol := range ch {
			s.Add(symbol)
		}
	}()
	return done
}

func (s *MemorySymbolStore) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Topics returns the kline and public trade topics of every symbol,
// e.g. "kline.1.BTCUSDT" and "publicTrade.BTCUSDT".
func (s *MemorySymbolStore) Topics(interval string) []string {
	symbols := s.GetAll()
	topics := make([]string, 0, 2*len(symbols))
	for _, symbol := range symbols {
		topics = append(topics,
			fmt.Sprintf("kline.%s.%s", interval, symbol),
			"publicTrade."+symbol,
		)
	}
	return topics
}
