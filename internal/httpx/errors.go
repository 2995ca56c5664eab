package httpx

import (
	"errors"
	"net/http"

	"github.com/ariefcatur/go-shop-backend/internal/cart"
	"github.com/ariefcatur/go-shop-backend/internal/catalog"
	"github.com/ariefcatur/go-shop-backend/internal/inventory"
	"github.com/ariefcatur/go-shop-backend/internal/orders"
)

// Mapping error domain -> status HTTP. Default 500.
func statusFor(err error) int {
	var oos *inventory.OutOfStockError
	var pnf *inventory.ProductNotFoundError
	var iq *orders.InvalidQuantityError

	switch {
	case errors.Is(err, orders.ErrEmptyOrder), errors.As(err, &iq):
		return http.StatusBadRequest
	case errors.As(err, &oos), errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &pnf),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, code, msg)
}
