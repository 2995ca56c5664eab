package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type Repo struct{ DB *pgxpool.Pool }

// Filter listing produk. Pointer nil = tidak difilter.
type ProductFilter struct {
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Featured     *bool
	Trending     *bool
	Search       string
}

const productCols = `p.id, p.name, p.description, p.price, p.stock,
	COALESCE(p.category_id, ''), p.featured, p.trending, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.CategoryID, &p.Featured, &p.Trending, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products p`
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CategorySlug != "" {
		add(`p.category_id = (SELECT id FROM categories WHERE slug = $%d)`, f.CategorySlug)
	}
	if f.MinPrice != nil {
		add(`p.price >= $%d`, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add(`p.price <= $%d`, *f.MaxPrice)
	}
	if f.Featured != nil {
		add(`p.featured = $%d`, *f.Featured)
	}
	if f.Trending != nil {
		add(`p.trending = $%d`, *f.Trending)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf(`(p.name ILIKE $%d OR p.description ILIKE $%d)`, len(args), len(args)))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY p.created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products p WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, slug, COALESCE(description, ''), is_active, created_at
		FROM categories WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddWishlist idempotent: (user, product) unik, insert kedua kali tidak error.
func (r *Repo) AddWishlist(ctx context.Context, userID, productID string) error {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO wishlists(id, user_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		uuid.NewString(), userID, productID)
	return err
}

func (r *Repo) RemoveWishlist(ctx context.Context, userID, productID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListWishlist(ctx context.Context, userID string) ([]WishlistEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT w.id, w.product_id, w.created_at, `+productCols+`
		FROM wishlists w JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1 ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WishlistEntry
	for rows.Next() {
		var e WishlistEntry
		var p Product
		if err := rows.Scan(&e.ID, &e.ProductID, &e.CreatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.CategoryID, &p.Featured, &p.Trending, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		e.Product = &p
		out = append(out, e)
	}
	return out, rows.Err()
}
