package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveDecrementsAndSnapshotsPrice(t *testing.T) {
	s := NewMemStore()
	s.Put("p1", decimal.RequireFromString("10.00"), 5)

	price, err := s.Reserve(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("10.00")), "price snapshot: %s", price)
	assert.Equal(t, 2, s.Stock("p1"))
}

func TestReserveOutOfStock(t *testing.T) {
	s := NewMemStore()
	s.Put("p1", decimal.RequireFromString("10.00"), 2)

	_, err := s.Reserve(context.Background(), "p1", 3)
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "p1", oos.ProductID)
	assert.Equal(t, 3, oos.Required)
	assert.Equal(t, 2, oos.Available)
	assert.Equal(t, 2, s.Stock("p1"), "stok tidak boleh berubah saat gagal")
}

func TestReserveUnknownProduct(t *testing.T) {
	s := NewMemStore()

	_, err := s.Reserve(context.Background(), "ghost", 1)
	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "ghost", pnf.ProductID)
}

func TestPriceLookup(t *testing.T) {
	s := NewMemStore()
	s.Put("p1", decimal.RequireFromString("7.25"), 1)

	price, err := s.Price(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("7.25")))

	_, err = s.Price(context.Background(), "ghost")
	var pnf *ProductNotFoundError
	assert.ErrorAs(t, err, &pnf)
}

func TestRestoreAddsStockBack(t *testing.T) {
	s := NewMemStore()
	s.Put("p1", decimal.RequireFromString("4.50"), 5)

	_, err := s.Reserve(context.Background(), "p1", 5)
	require.NoError(t, err)
	require.NoError(t, s.Restore(context.Background(), "p1", 5))
	assert.Equal(t, 5, s.Stock("p1"))
}

// Stok tidak pernah negatif: 100 reservasi barengan rebutan stok 50,
// tepat 50 yang boleh sukses.
func TestConcurrentReserveNeverOversells(t *testing.T) {
	s := NewMemStore()
	s.Put("p1", decimal.RequireFromString("1.00"), 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Reserve(context.Background(), "p1", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)
	assert.Equal(t, 0, s.Stock("p1"))
}

func TestConcurrentReserveDistinctProducts(t *testing.T) {
	s := NewMemStore()
	s.Put("a", decimal.RequireFromString("1.00"), 100)
	s.Put("b", decimal.RequireFromString("2.00"), 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "a"
			if i%2 == 0 {
				id = "b"
			}
			_, err := s.Reserve(context.Background(), id, 1)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Stock("a"))
	assert.Equal(t, 50, s.Stock("b"))
}
