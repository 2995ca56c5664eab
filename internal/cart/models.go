package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"` // harga katalog saat ini, bukan snapshot
	Quantity    int             `json:"quantity"`
	AddedAt     time.Time       `json:"added_at"`
}

type Cart struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}
