package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
)

type Repo struct{ DB *pgxpool.Pool }

// cartID: satu cart per user, dibuat lazily.
func (r *Repo) cartID(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.DB.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	// ON CONFLICT jaga-jaga dua request pertama barengan
	_, err = r.DB.Exec(ctx, `
		INSERT INTO carts(id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, id, userID)
	if err != nil {
		return "", err
	}
	err = r.DB.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&id)
	return id, err
}

func (r *Repo) Get(ctx context.Context, userID string) (Cart, error) {
	cid, err := r.cartID(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.product_id, p.name, p.price, ci.quantity, ci.added_at
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 ORDER BY ci.added_at`, cid)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c := Cart{ID: cid}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.AddedAt); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

// Add: kalau produk sudah ada di cart, qty ditambah.
func (r *Repo) Add(ctx context.Context, userID, productID string, qty int) (Item, error) {
	cid, err := r.cartID(ctx, userID)
	if err != nil {
		return Item{}, err
	}

	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return Item{}, err
	}
	if !exists {
		return Item{}, ErrProductNotFound
	}

	var itemID string
	err = r.DB.QueryRow(ctx, `
		INSERT INTO cart_items(id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id`,
		uuid.NewString(), cid, productID, qty).Scan(&itemID)
	if err != nil {
		return Item{}, err
	}
	return r.item(ctx, cid, itemID)
}

func (r *Repo) item(ctx context.Context, cartID, itemID string) (Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `
		SELECT ci.id, ci.product_id, p.name, p.price, ci.quantity, ci.added_at
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 AND ci.id = $2`, cartID, itemID).
		Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

func (r *Repo) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) (Item, error) {
	cid, err := r.cartID(ctx, userID)
	if err != nil {
		return Item{}, err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`, cid, itemID, qty)
	if err != nil {
		return Item{}, err
	}
	if ct.RowsAffected() == 0 {
		return Item{}, ErrItemNotFound
	}
	return r.item(ctx, cid, itemID)
}

func (r *Repo) Remove(ctx context.Context, userID, itemID string) error {
	cid, err := r.cartID(ctx, userID)
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cid, itemID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	cid, err := r.cartID(ctx, userID)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cid)
	return err
}
