package checkout

import (
	"context"
	"testing"

	kafkax "github.com/ariefcatur/go-shop-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newService(store *memStore) (*Service, *memPublisher, *memPublisher) {
	placed := &memPublisher{}
	status := &memPublisher{}
	return &Service{
		Store:          store,
		PlacedProducer: placed,
		StatusProducer: status,
		ServiceName:    "shop-api-test",
	}, placed, status
}

func TestPlaceOrderHappyPath(t *testing.T) {
	store := newMemStore()
	store.addProduct("productA", 5, 1000) // 10.00
	store.addToCart("user-1", "productA", 2)
	svc, placed, _ := newService(store)

	o, err := svc.PlaceOrder(context.Background(), "user-1", "Jl. Sudirman 1", "trace-1")
	require.NoError(t, err)
	require.Equal(t, shop.StatusPending, o.Status)
	require.Equal(t, 2000, o.TotalCents)
	require.Len(t, o.Lines, 1)
	require.Equal(t, 1000, o.Lines[0].PriceCents)

	require.Equal(t, 3, store.stock["productA"])
	require.Empty(t, store.carts["user-1"])

	require.Equal(t, 1, placed.count())
	var env shop.Envelope
	require.NoError(t, kafkax.UnmarshalEnvelope(placed.last(), &env))
	require.Equal(t, shop.EventOrderPlaced, env.EventType)
	require.Equal(t, o.ID, env.CorrelationID)
	require.Equal(t, "trace-1", env.TraceID)

	p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](env.Payload)
	require.NoError(t, err)
	require.Equal(t, o.ID, p.OrderID)
	require.Equal(t, 2000, p.TotalCents)
	require.Len(t, p.Lines, 1)
	require.Equal(t, "productA", p.Lines[0].ProductID)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	store := newMemStore()
	svc, placed, _ := newService(store)

	_, err := svc.PlaceOrder(context.Background(), "user-1", "addr", "")
	require.ErrorIs(t, err, shop.ErrEmptyCart)
	require.Zero(t, placed.count())
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	store := newMemStore()
	store.addProduct("productB", 1, 500)
	store.addToCart("user-1", "productB", 3)
	svc, placed, _ := newService(store)

	_, err := svc.PlaceOrder(context.Background(), "user-1", "addr", "")
	ise, ok := shop.IsInsufficientStock(err)
	require.True(t, ok)
	require.Equal(t, "productB", ise.ProductID)
	require.Equal(t, 3, ise.Required)
	require.Equal(t, 1, ise.Available)

	// no residue: stock and cart untouched, nothing published
	require.Equal(t, 1, store.stock["productB"])
	require.Len(t, store.carts["user-1"], 1)
	require.Zero(t, placed.count())
}

func TestCheckoutRollsBackOnMidCheckoutFailure(t *testing.T) {
	store := newMemStore()
	store.addProduct("productA", 5, 1000)
	store.addProduct("productB", 5, 700)
	store.addToCart("user-1", "productA", 2)
	store.addToCart("user-1", "productB", 1)
	store.failAfter = 1 // fail after line 1 is reserved
	svc, placed, _ := newService(store)

	_, err := svc.PlaceOrder(context.Background(), "user-1", "addr", "")
	require.ErrorIs(t, err, errInjected)

	// line 1's reservation rolled back, cart unchanged
	require.Equal(t, 5, store.stock["productA"])
	require.Equal(t, 5, store.stock["productB"])
	require.Len(t, store.carts["user-1"], 2)
	require.Zero(t, placed.count())
}

func TestConcurrentCheckoutLastUnit(t *testing.T) {
	store := newMemStore()
	store.addProduct("productA", 1, 1000)
	store.addToCart("user-1", "productA", 1)
	store.addToCart("user-2", "productA", 1)
	svc, placed, _ := newService(store)

	errs := make([]error, 2)
	var g errgroup.Group
	for i, user := range []string{"user-1", "user-2"} {
		i, user := i, user
		g.Go(func() error {
			_, errs[i] = svc.PlaceOrder(context.Background(), user, "addr", "")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		_, ok := shop.IsInsufficientStock(err)
		require.True(t, ok)
		losses++
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)
	require.Equal(t, 0, store.stock["productA"])
	require.Equal(t, 1, placed.count())
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	store := newMemStore()
	store.addProduct("productA", 5, 1000)
	store.addToCart("user-1", "productA", 2)
	svc, _, status := newService(store)

	o, err := svc.PlaceOrder(context.Background(), "user-1", "addr", "")
	require.NoError(t, err)
	require.Equal(t, 3, store.stock["productA"])

	// confirm first: cancel must work from CONFIRMED as well
	_, err = svc.Confirm(context.Background(), o.ID, "user-1", "")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), o.ID, "user-1", "")
	require.NoError(t, err)
	require.Equal(t, shop.StatusCancelled, cancelled.Status)
	require.Equal(t, 5, store.stock["productA"])

	// cancelling twice fails and does not restock again
	_, err = svc.Cancel(context.Background(), o.ID, "user-1", "")
	require.ErrorIs(t, err, shop.ErrInvalidState)
	require.Equal(t, 5, store.stock["productA"])

	require.Equal(t, 2, status.count())
	var env shop.Envelope
	require.NoError(t, kafkax.UnmarshalEnvelope(status.last(), &env))
	p, err := kafkax.UnwrapPayload[shop.OrderStatusChangedPayload](env.Payload)
	require.NoError(t, err)
	require.Equal(t, shop.StatusCancelled, p.Status)
}

func TestConfirmOnlyFromPending(t *testing.T) {
	store := newMemStore()
	store.addProduct("productA", 5, 1000)
	store.addToCart("user-1", "productA", 1)
	svc, _, _ := newService(store)

	o, err := svc.PlaceOrder(context.Background(), "user-1", "addr", "")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), o.ID, "user-1", "")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), o.ID, "user-1", "")
	require.ErrorIs(t, err, shop.ErrInvalidState)
}

func TestOrderScopedToOwner(t *testing.T) {
	store := newMemStore()
	store.addProduct("productA", 5, 1000)
	store.addToCart("user-1", "productA", 1)
	svc, _, _ := newService(store)

	o, err := svc.PlaceOrder(context.Background(), "user-1", "addr", "")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), o.ID, "user-2", "")
	require.ErrorIs(t, err, shop.ErrNotFound)
}
