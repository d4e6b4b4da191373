package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-shop-checkout.git/internal/config"
	"github.com/ariefcatur/go-shop-checkout.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-shop-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-shop-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-shop-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/joho/godotenv"
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
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: placed & status (dua topic berbeda)
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	// Service & handlers
	svc := &checkout.Service{
		Store:          &shop.CheckoutRepo{DB: db},
		PlacedProducer: pPlaced,
		StatusProducer: pStatus,
		ServiceName:    cfg.ServiceName,
	}

	router := httpx.NewRouter(redisx.RateLimit(rdb, cfg.RatePerMinute))
	(&httpx.ProductsHandler{Catalog: &shop.ProductRepo{DB: db}}).Register(router)
	(&httpx.CartHandler{Cart: &shop.CartRepo{DB: db}, Redis: rdb}).Register(router)
	(&httpx.OrdersHandler{Checkout: svc, Orders: &shop.OrderRepo{DB: db}, Redis: rdb}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pPlaced.Close() // tutup inbox -> flush & close writer
	pStatus.Close()
	cancel() // stop producer loops
	pPlaced.WaitClosed()
	pStatus.WaitClosed()
}
