package httpx

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-shop-backend/internal/cart"
	"github.com/ariefcatur/go-shop-backend/internal/orders"
)

// CartStore dipenuhi *cart.Repo; test pakai versi in-memory.
type CartStore interface {
	Get(ctx context.Context, userID string) (cart.Cart, error)
	Add(ctx context.Context, userID, productID string, qty int) (cart.Item, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, qty int) (cart.Item, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	Repo CartStore
	// checkout numpang side effect (cache + event) ke orders handler
	Orders *OrdersHandler
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart/items", h.add)
	r.Put("/cart/items/{id}", h.update)
	r.Delete("/cart/items/{id}", h.remove)
	r.Post("/cart/clear", h.clear)
	r.Post("/cart/checkout", h.checkout)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.Get(ctx, UserID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing product_id")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Repo.Add(ctx, UserID(r), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Repo.UpdateQuantity(ctx, UserID(r), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.Remove(ctx, UserID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.Clear(ctx, UserID(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "cart cleared"})
}

// checkout: isi cart jadi order, cart dikosongin setelah sukses.
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingAddress string `json:"shipping_address"`
		Phone           string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID := UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Repo.Get(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]orders.ItemInput, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.Orders.Svc.Place(ctx, userID, req.ShippingAddress, req.Phone, items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Orders.orderPlacedSideEffects(ctx, o, r.Header.Get("X-Request-Id"))
	if err := h.Repo.Clear(ctx, userID); err != nil {
		// order sudah jadi; cart yang gagal dikosongin jangan gagalin response
		log.Printf("clear cart user=%s after checkout: %v", userID, err)
	}
	writeJSON(w, http.StatusCreated, o)
}
