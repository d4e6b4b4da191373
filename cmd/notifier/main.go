package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ariefcatur/go-shop-checkout.git/internal/config"
	kafkax "github.com/ariefcatur/go-shop-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-shop-checkout.git/internal/notify"
	"github.com/ariefcatur/go-shop-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	svc := &notify.Service{
		Redis:       rdb,
		Log:         logger,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	group := getenv("NOTIFIER_GROUP", "shop-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")

	cPlaced := kafkax.NewConsumer(cfg.KafkaBrokers, group, shop.TopicOrderPlaced, workers)
	cStatus := kafkax.NewConsumer(cfg.KafkaBrokers, group, shop.TopicOrderStatusChanged, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, shop.TopicOrderPlaced, workers)
		return cPlaced.Start(gctx, svc.HandleOrderPlaced)
	})
	g.Go(func() error {
		log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, shop.TopicOrderStatusChanged, workers)
		return cStatus.Start(gctx, svc.HandleStatusChanged)
	})

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down consumers...")
		cancel()
	case <-gctx.Done():
	}
	if err := g.Wait(); err != nil {
		log.Printf("consumer exit: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
