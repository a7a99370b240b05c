package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/example/railsahayak/internal/models"
)

// OrderStore persists order records written at checkout, keyed by record id so
// a redelivered event is stored once. The service only ever writes; reads
// exist for operators and tests.
type OrderStore interface {
	SaveOrder(ctx context.Context, o models.OrderRecord) error
	Close() error
}

var ErrNoRecordID = errors.New("order record has no record id")

type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]models.OrderRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]models.OrderRecord)}
}

// SaveOrder keeps the first write for a record id.
func (m *MemoryStore) SaveOrder(_ context.Context, o models.OrderRecord) error {
	if o.RecordID == "" {
		return ErrNoRecordID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.RecordID]; !ok {
		m.orders[o.RecordID] = o
	}
	return nil
}

func (m *MemoryStore) Get(recordID string) (models.OrderRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[recordID]
	return o, ok
}

// ByOrderID returns every record carrying the passenger-facing order code.
func (m *MemoryStore) ByOrderID(orderID string) []models.OrderRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.OrderRecord
	for _, o := range m.orders {
		if o.OrderID == orderID {
			out = append(out, o)
		}
	}
	return out
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func (m *MemoryStore) Close() error { return nil }
