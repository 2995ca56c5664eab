package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Store: reservasi stok per produk.
//
// Reserve mengurangi stok secara atomik hanya jika stok cukup, dan
// mengembalikan harga produk pada saat pengurangan (snapshot untuk line item).
// Dua Reserve barengan pada produk yang sama tidak boleh dua-duanya sukses
// kalau jumlahnya melebihi stok. Restore membalikkan satu reservasi; caller
// wajib memanggilnya maksimal sekali per line item yang dibatalkan.
type Store interface {
	Reserve(ctx context.Context, productID string, qty int) (decimal.Decimal, error)
	Restore(ctx context.Context, productID string, qty int) error
	Price(ctx context.Context, productID string) (decimal.Decimal, error)
}

type OutOfStockError struct {
	ProductID string
	Required  int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: product=%s required=%d available=%d",
		e.ProductID, e.Required, e.Available)
}

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}
