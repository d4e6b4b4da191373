package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type CartStore interface {
	Add(ctx context.Context, userID, productID string, qty int) error
	Update(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]shop.CartLine, error)
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	Cart  CartStore
	Redis *redis.Client // optional cart cache
}

type AddItemReq struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty"`
}

type UpdateItemReq struct {
	Qty int `json:"qty"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireOwner)
		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addItem)
		r.Patch("/cart/items/{productID}", h.updateItem)
		r.Delete("/cart/items/{productID}", h.removeItem)
		r.Post("/cart/clear", h.clearCart)
	})
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	owner := ownerFrom(r)

	// 1) coba cache
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyCart, owner)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	// 2) fallback DB
	lines, err := h.Cart.List(ctx, owner)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toCartResp(lines)
	if h.Redis != nil {
		if b, err := json.Marshal(resp); err == nil {
			_ = h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyCart, owner), b, redisx.TTLCartCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemReq
	if err := bindAndValidate(w, r, &req); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	owner := ownerFrom(r)

	if err := h.Cart.Add(ctx, owner, req.ProductID, req.Qty); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, owner)
	h.respondCart(ctx, w, owner, http.StatusOK)
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemReq
	if err := bindAndValidate(w, r, &req); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	owner := ownerFrom(r)

	if err := h.Cart.Update(ctx, owner, chi.URLParam(r, "productID"), req.Qty); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, owner)
	h.respondCart(ctx, w, owner, http.StatusOK)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	owner := ownerFrom(r)

	if err := h.Cart.Remove(ctx, owner, chi.URLParam(r, "productID")); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, owner)
	h.respondCart(ctx, w, owner, http.StatusOK)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	owner := ownerFrom(r)

	if err := h.Cart.Clear(ctx, owner); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, owner)
	writeJSON(w, http.StatusOK, toCartResp(nil))
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, owner string, code int) {
	lines, err := h.Cart.List(ctx, owner)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, code, toCartResp(lines))
}

func (h *CartHandler) invalidate(ctx context.Context, owner string) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCart, owner)).Err()
}
