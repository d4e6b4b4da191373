package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// CheckoutService is implemented by *checkout.Service.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID, shippingAddress, trace string) (*shop.Order, error)
	Confirm(ctx context.Context, orderID, userID, trace string) (*shop.Order, error)
	Cancel(ctx context.Context, orderID, userID, trace string) (*shop.Order, error)
}

type OrderReader interface {
	Get(ctx context.Context, orderID, userID string) (*shop.Order, error)
	ListByUser(ctx context.Context, userID string) ([]shop.Order, error)
}

type OrdersHandler struct {
	Checkout CheckoutService
	Orders   OrderReader
	Redis    *redis.Client // optional status cache
}

type CreateOrderReq struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireOwner)
		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/confirm", h.confirmOrder)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
	})
}

// createOrder triggers checkout: the whole cart becomes an order or nothing
// happens at all.
func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := bindAndValidate(w, r, &req); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	owner := ownerFrom(r)

	o, err := h.Checkout.PlaceOrder(ctx, owner, req.ShippingAddress, middleware.GetReqID(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}

	// cart is gone now; drop its cache and prime the status cache
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCart, owner)).Err()
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Orders.ListByUser(ctx, ownerFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]OrderResp, 0, len(os))
	for i := range os {
		out = append(out, toOrderResp(&os[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"), ownerFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.Redis != nil {
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Checkout.Confirm(ctx, chi.URLParam(r, "id"), ownerFrom(r), middleware.GetReqID(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.Redis != nil {
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Checkout.Cancel(ctx, chi.URLParam(r, "id"), ownerFrom(r), middleware.GetReqID(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.Redis != nil {
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *shop.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()
}
