package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

var errInjected = errors.New("injected failure")

type cartLine struct {
	pid string
	qty int
}

// memStore is an in-memory Store honoring the same contract as the Postgres
// implementation: checkout is all-or-nothing and reservations for one call
// never interleave with another.
type memStore struct {
	mu     sync.Mutex
	stock  map[string]int // product -> available
	price  map[string]int // product -> unit price cents
	carts  map[string][]cartLine
	orders map[string]*shop.Order

	// failAfter injects a failure once that many lines have been reserved
	// (0 = disabled); used to prove rollback.
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{
		stock:  map[string]int{},
		price:  map[string]int{},
		carts:  map[string][]cartLine{},
		orders: map[string]*shop.Order{},
	}
}

func (m *memStore) addProduct(pid string, stock, priceCents int) {
	m.stock[pid] = stock
	m.price[pid] = priceCents
}

func (m *memStore) addToCart(userID, pid string, qty int) {
	m.carts[userID] = append(m.carts[userID], cartLine{pid: pid, qty: qty})
}

func (m *memStore) CheckoutTx(ctx context.Context, userID, shippingAddress string) (*shop.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[userID]
	if len(items) == 0 {
		return nil, shop.ErrEmptyCart
	}

	reserved := map[string]int{}
	rollback := func() {
		for pid, q := range reserved {
			m.stock[pid] += q
		}
	}

	now := time.Now().UTC()
	order := &shop.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          shop.StatusPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for i, it := range items {
		if m.failAfter > 0 && i == m.failAfter {
			rollback()
			return nil, errInjected
		}
		avail := m.stock[it.pid]
		if avail < it.qty {
			rollback()
			return nil, &shop.InsufficientStockError{ProductID: it.pid, Required: it.qty, Available: avail}
		}
		m.stock[it.pid] -= it.qty
		reserved[it.pid] += it.qty

		price := m.price[it.pid]
		order.Lines = append(order.Lines, shop.OrderLine{
			OrderID:    order.ID,
			ProductID:  it.pid,
			Qty:        it.qty,
			PriceCents: price,
		})
		order.TotalCents += shop.LineTotalCents(it.qty, price)
	}

	m.orders[order.ID] = order
	delete(m.carts, userID)
	cp := *order
	return &cp, nil
}

func (m *memStore) CancelTx(ctx context.Context, orderID, userID string) (*shop.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, shop.ErrNotFound
	}
	if !shop.CanTransition(o.Status, shop.StatusCancelled) {
		return nil, shop.ErrInvalidState
	}
	for _, l := range o.Lines {
		m.stock[l.ProductID] += l.Qty
	}
	o.Status = shop.StatusCancelled
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	return &cp, nil
}

func (m *memStore) ConfirmTx(ctx context.Context, orderID, userID string) (*shop.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, shop.ErrNotFound
	}
	if !shop.CanTransition(o.Status, shop.StatusConfirmed) {
		return nil, shop.ErrInvalidState
	}
	o.Status = shop.StatusConfirmed
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	return &cp, nil
}

// memPublisher records everything published.
type memPublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *memPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, value)
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func (p *memPublisher) last() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return nil
	}
	return p.msgs[len(p.msgs)-1]
}
