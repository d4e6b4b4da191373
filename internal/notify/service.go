// Package notify consumes order lifecycle events and keeps the order-status
// cache warm. It is purely observational: the database is the source of
// truth and nothing here mutates it.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/go-shop-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-shop-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type Service struct {
	Redis       *redis.Client
	Log         *slog.Logger
	ServiceName string
}

// HandleOrderPlaced dipasang sebagai handler consumer untuk topic order.placed.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderPlaced {
		return nil
	} // ignore

	if dup, err := s.seen(ctx, env.EventID); err != nil || dup {
		return err
	}

	p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.cacheStatus(ctx, p.OrderID, shop.StatusPending)
	s.Log.Info("order placed",
		"order_id", p.OrderID,
		"user_id", p.UserID,
		"lines", len(p.Lines),
		"total", shop.PriceString(p.TotalCents),
		"trace_id", env.TraceID,
	)
	return nil
}

// HandleStatusChanged refreshes the cache and records the notification
// intent for confirmed/cancelled orders.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderStatusChanged {
		return nil
	}

	if dup, err := s.seen(ctx, env.EventID); err != nil || dup {
		return err
	}

	p, err := kafkax.UnwrapPayload[shop.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.cacheStatus(ctx, p.OrderID, p.Status)
	s.Log.Info("order status changed",
		"order_id", p.OrderID,
		"user_id", p.UserID,
		"status", p.Status,
		"trace_id", env.TraceID,
	)
	return nil
}

// seen dedups by event_id; event ulang tidak diproses dua kali.
func (s *Service) seen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
	exists, _ := redisx.Exists(ctx, s.Redis, key)
	if exists {
		return true, nil
	}
	_ = s.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
	return false, nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, st shop.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, st), redisx.TTLStatusCache).Err()
}
