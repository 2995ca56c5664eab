package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgStore: reservasi lewat satu conditional UPDATE. Postgres yang serialize
// update pada row produk yang sama, jadi tidak perlu lock terpisah dan produk
// berbeda jalan paralel.
type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) Reserve(ctx context.Context, productID string, qty int) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING price`, productID, qty).Scan(&price)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, err
	}

	// Gagal: bedain produk tidak ada vs stok kurang.
	var available int
	err = s.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, &ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.Decimal{}, &OutOfStockError{ProductID: productID, Required: qty, Available: available}
}

func (s *PgStore) Restore(ctx context.Context, productID string, qty int) error {
	// Produk yang sudah dihapus dari katalog tidak di-treat sebagai error:
	// tidak ada stok yang perlu dibalikin.
	_, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, qty)
	return err
}

func (s *PgStore) Price(ctx context.Context, productID string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.DB.QueryRow(ctx, `SELECT price FROM products WHERE id = $1`, productID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, &ProductNotFoundError{ProductID: productID}
	}
	return price, err
}
