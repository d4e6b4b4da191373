// Package checkout drives the cart-to-order transition. All state changes
// happen inside a single store transaction; Kafka events go out only after
// the transaction committed and carry no authority over state.
package checkout

import (
	"context"
	"time"

	kafkax "github.com/ariefcatur/go-shop-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Store is the transactional surface the service drives. *shop.CheckoutRepo
// implements it against Postgres.
type Store interface {
	CheckoutTx(ctx context.Context, userID, shippingAddress string) (*shop.Order, error)
	CancelTx(ctx context.Context, orderID, userID string) (*shop.Order, error)
	ConfirmTx(ctx context.Context, orderID, userID string) (*shop.Order, error)
}

// Publisher is satisfied by *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store          Store
	PlacedProducer Publisher // topic order.placed
	StatusProducer Publisher // topic order.status.changed
	ServiceName    string
}

// PlaceOrder checks out the owner's cart. Errors from the store surface
// unmodified; the order.placed event is emitted only on success.
func (s *Service) PlaceOrder(ctx context.Context, userID, shippingAddress, trace string) (*shop.Order, error) {
	o, err := s.Store.CheckoutTx(ctx, userID, shippingAddress)
	if err != nil {
		return nil, err
	}

	lines := make([]shop.LineSnapshot, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, shop.LineSnapshot{ProductID: l.ProductID, Qty: l.Qty, PriceCents: l.PriceCents})
	}
	s.publish(s.PlacedProducer, shop.EventOrderPlaced, o.ID, trace, shop.OrderPlacedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Lines:      lines,
		TotalCents: o.TotalCents,
	})
	return o, nil
}

// Confirm moves PENDING -> CONFIRMED. Stock was already committed at checkout.
func (s *Service) Confirm(ctx context.Context, orderID, userID, trace string) (*shop.Order, error) {
	o, err := s.Store.ConfirmTx(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	s.publishStatus(o, trace)
	return o, nil
}

// Cancel is the compensating action: the store releases every line's stock
// and marks the order CANCELLED in the same transaction.
func (s *Service) Cancel(ctx context.Context, orderID, userID, trace string) (*shop.Order, error) {
	o, err := s.Store.CancelTx(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	s.publishStatus(o, trace)
	return o, nil
}

func (s *Service) publishStatus(o *shop.Order, trace string) {
	s.publish(s.StatusProducer, shop.EventOrderStatusChanged, o.ID, trace, shop.OrderStatusChangedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	})
}

func (s *Service) publish(p Publisher, eventType, orderID, trace string, payload any) {
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(shop.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
