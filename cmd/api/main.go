package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-shop-backend/internal/cart"
	"github.com/ariefcatur/go-shop-backend/internal/catalog"
	"github.com/ariefcatur/go-shop-backend/internal/config"
	"github.com/ariefcatur/go-shop-backend/internal/httpx"
	"github.com/ariefcatur/go-shop-backend/internal/inventory"
	kafkax "github.com/ariefcatur/go-shop-backend/internal/kafka"
	"github.com/ariefcatur/go-shop-backend/internal/orders"
	"github.com/ariefcatur/go-shop-backend/internal/postgres"
	"github.com/ariefcatur/go-shop-backend/internal/redisx"

	"github.com/go-chi/chi/v5"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)

	// Services & handlers
	orderSvc := &orders.Service{
		Inv:  &inventory.PgStore{DB: db},
		Repo: &orders.PgRepo{DB: db},
	}
	oh := &httpx.OrdersHandler{
		Svc:               orderSvc,
		ProducerPlaced:    pPlaced,
		ProducerCancelled: pCancelled,
		Redis:             rdb,
		Service:           cfg.ServiceName,
	}
	ch := &httpx.CatalogHandler{Repo: &catalog.Repo{DB: db}}
	carth := &httpx.CartHandler{Repo: &cart.Repo{DB: db}, Orders: oh}

	router := httpx.NewRouter()
	ch.Register(router) // katalog publik
	router.Group(func(r chi.Router) {
		r.Use(httpx.RequireUser)
		ch.RegisterWishlist(r)
		carth.Register(r)
		oh.Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pPlaced.Close() // tutup inbox -> flush & close writer
	pCancelled.Close()
	cancel()
	pPlaced.WaitClosed()
	pCancelled.WaitClosed()
}
