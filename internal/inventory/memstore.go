package inventory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type memProduct struct {
	mu    sync.Mutex
	price decimal.Decimal
	stock int
}

// MemStore: implementasi in-memory dengan mutex per produk, dipakai di test
// dan mode tanpa database. Reserve pada produk berbeda tidak saling blokir.
type MemStore struct {
	mu sync.RWMutex
	m  map[string]*memProduct
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]*memProduct)}
}

func (s *MemStore) Put(productID string, price decimal.Decimal, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[productID] = &memProduct{price: price, stock: stock}
}

func (s *MemStore) get(productID string) (*memProduct, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[productID]
	return p, ok
}

func (s *MemStore) Reserve(_ context.Context, productID string, qty int) (decimal.Decimal, error) {
	p, ok := s.get(productID)
	if !ok {
		return decimal.Decimal{}, &ProductNotFoundError{ProductID: productID}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stock < qty {
		return decimal.Decimal{}, &OutOfStockError{ProductID: productID, Required: qty, Available: p.stock}
	}
	p.stock -= qty
	return p.price, nil
}

func (s *MemStore) Restore(_ context.Context, productID string, qty int) error {
	p, ok := s.get(productID)
	if !ok {
		return nil // produk sudah dihapus, tidak ada stok yg dibalikin
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stock += qty
	return nil
}

func (s *MemStore) Price(_ context.Context, productID string) (decimal.Decimal, error) {
	p, ok := s.get(productID)
	if !ok {
		return decimal.Decimal{}, &ProductNotFoundError{ProductID: productID}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price, nil
}

// Stock buat assert di test.
func (s *MemStore) Stock(productID string) int {
	p, ok := s.get(productID)
	if !ok {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stock
}

// SetPrice simulasi perubahan harga katalog setelah order dibuat.
func (s *MemStore) SetPrice(productID string, price decimal.Decimal) {
	p, ok := s.get(productID)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.price = price
}
