package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-backend/internal/inventory"
	kafkax "github.com/ariefcatur/go-shop-backend/internal/kafka"
	"github.com/ariefcatur/go-shop-backend/internal/orders"
	"github.com/ariefcatur/go-shop-backend/internal/redisx"
)

// repo in-memory buat test handler tanpa Postgres.
type memOrderRepo struct {
	mu sync.Mutex
	m  map[string]orders.Order
}

func (r *memOrderRepo) Create(_ context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.Items = append([]orders.Item(nil), o.Items...)
	r.m[o.ID] = cp
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, orderID string) (orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[orderID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) ListByUser(_ context.Context, userID string) ([]orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []orders.Order
	for _, o := range r.m {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) Transition(_ context.Context, orderID string, from, to orders.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.m[orderID] = o
	return true, nil
}

func setup(t *testing.T) (*chi.Mux, *inventory.MemStore, *OrdersHandler) {
	// Redis mati di unit test biasa: error di-ignore handler.
	return setupRedis(t, "127.0.0.1:1")
}

func setupRedis(t *testing.T, redisAddr string) (*chi.Mux, *inventory.MemStore, *OrdersHandler) {
	t.Helper()
	inv := inventory.NewMemStore()
	svc := &orders.Service{Inv: inv, Repo: &memOrderRepo{m: make(map[string]orders.Order)}}

	// Kafka tidak jalan di unit test: producer tidak di-Start
	// jadi pesan cuma numpuk di inbox.
	h := &OrdersHandler{
		Svc:               svc,
		ProducerPlaced:    kafkax.NewProducer([]string{"127.0.0.1:1"}, orders.TopicOrderPlaced, 64),
		ProducerCancelled: kafkax.NewProducer([]string{"127.0.0.1:1"}, orders.TopicOrderCancelled, 64),
		Redis:             redisx.New(redisAddr),
		Service:           "shop-api-test",
	}

	r := NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		h.Register(r)
	})
	return r, inv, h
}

func doJSON(t *testing.T, mux *chi.Mux, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func placeBody(items ...orders.ItemInput) PlaceOrderReq {
	return PlaceOrderReq{ShippingAddress: "Jl. Sudirman 1", Phone: "0812", Items: items}
}

func TestPlaceOrderRequiresUser(t *testing.T) {
	mux, _, _ := setup(t)
	rr := doJSON(t, mux, http.MethodPost, "/orders", "", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 1}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPlaceOrderHTTP(t *testing.T) {
	mux, inv, h := setup(t)
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 3}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var o orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))
	assert.Equal(t, orders.StatusPlaced, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("30.00")))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, inv.Stock("p1"))
	assert.Equal(t, 1, h.ProducerPlaced.Pending())
}

func TestPlaceOrderEmptyItems(t *testing.T) {
	mux, _, _ := setup(t)
	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody())
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceOrderOutOfStock(t *testing.T) {
	mux, inv, _ := setup(t)
	inv.Put("p1", decimal.RequireFromString("10.00"), 2)

	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 3}))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 2, inv.Stock("p1"))
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	mux, _, _ := setup(t)
	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "ghost", Quantity: 1}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetOrderOwnershipHidden(t *testing.T) {
	mux, inv, _ := setup(t)
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 1}))
	require.Equal(t, http.StatusCreated, rr.Code)
	var o orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))

	rr = doJSON(t, mux, http.MethodGet, "/orders/"+o.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, mux, http.MethodGet, "/orders/"+o.ID, "alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCancelOrderHTTP(t *testing.T) {
	mux, inv, h := setup(t)
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 3}))
	require.Equal(t, http.StatusCreated, rr.Code)
	var o orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))
	require.Equal(t, 2, inv.Stock("p1"))

	rr = doJSON(t, mux, http.MethodPost, "/orders/"+o.ID+"/cancel", "alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, inv.Stock("p1"))
	// event cancel tetap kepublish walau Redis mati
	assert.Equal(t, 1, h.ProducerCancelled.Pending())

	// cancel kedua kali: sudah CANCELLED -> conflict
	rr = doJSON(t, mux, http.MethodPost, "/orders/"+o.ID+"/cancel", "alice", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 5, inv.Stock("p1"))
	assert.Equal(t, 1, h.ProducerCancelled.Pending())
}

func TestCancelOrderForbidden(t *testing.T) {
	mux, inv, _ := setup(t)
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 1}))
	require.Equal(t, http.StatusCreated, rr.Code)
	var o orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))

	rr = doJSON(t, mux, http.MethodPost, "/orders/"+o.ID+"/cancel", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListOrdersHTTP(t *testing.T) {
	mux, inv, _ := setup(t)
	inv.Put("p1", decimal.RequireFromString("1.00"), 10)

	rr := doJSON(t, mux, http.MethodGet, "/orders", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 1}))
	time.Sleep(time.Millisecond)
	doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 2}))

	rr = doJSON(t, mux, http.MethodGet, "/orders", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestInvoiceHTTP(t *testing.T) {
	mux, inv, _ := setup(t)
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	rr := doJSON(t, mux, http.MethodPost, "/orders", "alice", placeBody(orders.ItemInput{ProductID: "p1", Quantity: 2}))
	require.Equal(t, http.StatusCreated, rr.Code)
	var o orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))

	rr = doJSON(t, mux, http.MethodGet, "/orders/"+o.ID+"/invoice", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))

	rr = doJSON(t, mux, http.MethodGet, "/orders/"+o.ID+"/invoice", "bob", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func doJSONIdem(t *testing.T, mux *chi.Mux, user, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/orders", &buf)
	req.Header.Set("X-User-Id", user)
	req.Header.Set("Idempotency-Key", key)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestPlaceOrderIdempotentReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	mux, inv, _ := setupRedis(t, mr.Addr())
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	body := placeBody(orders.ItemInput{ProductID: "p1", Quantity: 2})

	rr := doJSONIdem(t, mux, "alice", "k-1", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var first orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	require.Equal(t, 3, inv.Stock("p1"))

	// replay dengan key sama: order lama dikembalikan, stok tidak turun lagi
	rr = doJSONIdem(t, mux, "alice", "k-1", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var second orders.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, inv.Stock("p1"))

	// key sama untuk user lain tetap order baru
	rr = doJSONIdem(t, mux, "bob", "k-1", body)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, inv.Stock("p1"))
}

func TestPlaceOrderIdempotentConcurrent(t *testing.T) {
	mr := miniredis.RunT(t)
	mux, inv, _ := setupRedis(t, mr.Addr())
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)

	body := placeBody(orders.ItemInput{ProductID: "p1", Quantity: 1})

	var wg sync.WaitGroup
	codes := make([]int, 2)
	ids := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := doJSONIdem(t, mux, "alice", "k-race", body)
			codes[i] = rr.Code
			var o orders.Order
			if json.Unmarshal(rr.Body.Bytes(), &o) == nil {
				ids[i] = o.ID
			}
		}(i)
	}
	wg.Wait()

	// cuma satu yang bikin order, satunya dapat replay
	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusOK}, codes)
	assert.Equal(t, ids[0], ids[1])
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, 4, inv.Stock("p1"))
}

func TestIdempotencyKeyFreeAfterFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	mux, inv, _ := setupRedis(t, mr.Addr())
	inv.Put("p1", decimal.RequireFromString("10.00"), 1)

	body := placeBody(orders.ItemInput{ProductID: "p1", Quantity: 3})

	rr := doJSONIdem(t, mux, "alice", "k-retry", body)
	require.Equal(t, http.StatusConflict, rr.Code)

	// klaim dilepas waktu gagal: retry dengan key sama boleh jalan lagi
	inv.Put("p1", decimal.RequireFromString("10.00"), 5)
	rr = doJSONIdem(t, mux, "alice", "k-retry", body)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 2, inv.Stock("p1"))
}
