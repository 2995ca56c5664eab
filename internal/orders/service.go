package orders

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-shop-backend/internal/inventory"
)

// Repo: persistence order, lihat repo.go untuk implementasi Postgres.
type Repo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// Transition: CAS status; false kalau status sekarang bukan `from`.
	Transition(ctx context.Context, orderID string, from, to Status) (bool, error)
}

type Service struct {
	Inv  inventory.Store
	Repo Repo
}

// Place: reservasi per item urut sesuai request, lalu persist order + items
// dalam satu transaksi repo. Gagal di tengah (stok kurang, produk hilang,
// ataupun insert-nya sendiri gagal) -> semua reservasi sebelumnya dibalikin
// dulu baru error di-return. Tidak pernah ada efek parsial.
func (s *Service) Place(ctx context.Context, userID, shippingAddress, phone string, items []ItemInput) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return Order{}, &InvalidQuantityError{ProductID: it.ProductID, Quantity: it.Quantity}
		}
	}

	reserved := make([]Item, 0, len(items))
	for _, it := range items {
		price, err := s.Inv.Reserve(ctx, it.ProductID, it.Quantity)
		if err != nil {
			s.releaseAll(ctx, reserved)
			return Order{}, err
		}
		reserved = append(reserved, Item{
			ID:        uuid.NewString(),
			ProductID: it.ProductID,
			Price:     price, // snapshot dari Reserve, bukan query harga terpisah
			Quantity:  it.Quantity,
		})
	}

	total := decimal.Zero
	for _, li := range reserved {
		total = total.Add(li.Subtotal())
	}

	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          StatusPlaced,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		Phone:           phone,
		CreatedAt:       time.Now().UTC(),
		Items:           reserved,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	if err := s.Repo.Create(ctx, &o); err != nil {
		s.releaseAll(ctx, reserved)
		return Order{}, err
	}
	return o, nil
}

func (s *Service) releaseAll(ctx context.Context, reserved []Item) {
	for _, li := range reserved {
		if err := s.Inv.Restore(ctx, li.ProductID, li.Quantity); err != nil {
			log.Printf("restore product=%s qty=%d: %v", li.ProductID, li.Quantity, err)
		}
	}
}

// Cancel: hanya owner, hanya dari PLACED. CAS transisi duluan; cuma pemenang
// CAS yang balikin stok, jadi restore kejalan maksimal sekali per line item
// walau ada cancel barengan. Restore yang gagal di-log lalu lanjut ke item
// berikutnya, satu item macet tidak boleh bikin sisanya ikut nyangkut.
// Return order yang sudah CANCELLED lengkap dengan line item-nya.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) (Order, error) {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrForbidden
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return Order{}, ErrInvalidTransition
	}

	ok, err := s.Repo.Transition(ctx, orderID, StatusPlaced, StatusCancelled)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, ErrInvalidTransition
	}

	s.releaseAll(ctx, o.Items)
	o.Status = StatusCancelled
	return o, nil
}

// Get owner-scoped: order punya user lain dijawab not found, bukan forbidden,
// biar keberadaan order orang lain tidak bocor.
func (s *Service) Get(ctx context.Context, orderID, userID string) (Order, error) {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// MarkShipped / MarkDelivered: transisi administratif, tidak di-expose ke
// end user lewat HTTP.
func (s *Service) MarkShipped(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, StatusPlaced, StatusShipped)
}

func (s *Service) MarkDelivered(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, StatusShipped, StatusDelivered)
}

func (s *Service) transition(ctx context.Context, orderID string, from, to Status) error {
	if _, err := s.Repo.Get(ctx, orderID); err != nil {
		return err
	}
	ok, err := s.Repo.Transition(ctx, orderID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}
