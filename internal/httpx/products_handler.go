package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
	"github.com/go-chi/chi/v5"
)

// Catalog is the read-only collaborator view of the product catalog.
// Catalog mutation lives elsewhere.
type Catalog interface {
	List(ctx context.Context) ([]shop.Product, error)
	Get(ctx context.Context, id string) (*shop.Product, error)
}

type ProductsHandler struct {
	Catalog Catalog
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.List(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]ProductResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResp(*p))
}
