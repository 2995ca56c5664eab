package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-shop-backend/internal/invoice"
	kafkax "github.com/ariefcatur/go-shop-backend/internal/kafka"
	"github.com/ariefcatur/go-shop-backend/internal/orders"
	"github.com/ariefcatur/go-shop-backend/internal/redisx"
)

type OrdersHandler struct {
	Svc               *orders.Service
	ProducerPlaced    *kafkax.Producer
	ProducerCancelled *kafkax.Producer
	Redis             *redis.Client
	Service           string
}

// Penanda klaim idempotency yang order id-nya belum tersimpan.
const idemPending = "PENDING"

type PlaceOrderReq struct {
	ShippingAddress string             `json:"shipping_address"`
	Phone           string             `json:"phone"`
	Items           []orders.ItemInput `json:"items"`
}

// Register di router yang sudah lewat RequireUser.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Get("/orders/{id}/invoice", h.invoice)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID := UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Optional idempotency: klaim key dulu pakai SET NX sebelum Place, supaya
	// dua request barengan dengan key sama tidak dua-duanya bikin order.
	idemHeader := r.Header.Get("Idempotency-Key")
	var idemKey string
	claimed := false
	if idemHeader != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemOrderPlace, userID, idemHeader)
		redisDown := false
		for i := 0; i < 40; i++ {
			ok, err := h.Redis.SetNX(ctx, idemKey, idemPending, redisx.TTLIdempotency).Result()
			if err != nil {
				redisDown = true // Redis mati: jalan terus tanpa idempotency
				break
			}
			if ok {
				claimed = true
				break
			}
			// Kalah klaim. Kalau pemenang sudah nyimpen order id -> replay.
			if v, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && v != idemPending {
				o, err := h.Svc.Get(ctx, v, userID)
				if err != nil {
					writeDomainError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, o)
				return
			}
			// Pemenang masih jalan (atau klaimnya barusan dilepas), coba lagi.
			time.Sleep(25 * time.Millisecond)
		}
		if !claimed && !redisDown {
			writeError(w, http.StatusConflict, "request with the same idempotency key is in flight")
			return
		}
	}

	o, err := h.Svc.Place(ctx, userID, req.ShippingAddress, req.Phone, req.Items)
	if err != nil {
		if claimed {
			// lepas klaim biar retry berikutnya boleh coba lagi
			_ = h.Redis.Del(ctx, idemKey).Err()
		}
		writeDomainError(w, err)
		return
	}

	if claimed {
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}
	h.orderPlacedSideEffects(ctx, o, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, o)
}

// Cache status + publish event OrderPlaced. Dipakai juga oleh checkout cart.
func (h *OrdersHandler) orderPlacedSideEffects(ctx context.Context, o orders.Order, trace string) {
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:     o.ID,
			UserID:      o.UserID,
			Items:       toSnapshots(o.Items),
			TotalAmount: o.TotalAmount,
		}),
	}
	h.ProducerPlaced.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toSnapshots(items []orders.Item) []orders.ItemSnapshot {
	out := make([]orders.ItemSnapshot, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemSnapshot{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return out
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Svc.List(ctx, UserID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Svc.Get(ctx, chi.URLParam(r, "id"), UserID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	userID := UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// event dipublish dari snapshot hasil Cancel, bukan dari Get susulan
	o, err := h.Svc.Cancel(ctx, orderID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, orders.StatusCancelled), redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCancelled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.OrderCancelledPayload{
			OrderID: orderID,
			UserID:  userID,
			Items:   toSnapshots(o.Items),
		}),
	}
	h.ProducerCancelled.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCancelled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, map[string]string{"detail": "order cancelled"})
}

func (h *OrdersHandler) invoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Svc.Get(ctx, chi.URLParam(r, "id"), UserID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	b, err := invoice.Render(o)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render invoice")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice_%s.pdf"`, o.ID))
	_, _ = w.Write(b)
}
