package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-checkout.git/internal/shop"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain taxonomy onto HTTP. 409s are retryable from the
// client's point of view; a failed checkout left no residue behind.
func writeErr(w http.ResponseWriter, err error) {
	if ise, ok := shop.IsInsufficientStock(err); ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient_stock",
			"product_id": ise.ProductID,
			"required":   ise.Required,
			"available":  ise.Available,
		})
		return
	}
	switch {
	case errors.Is(err, shop.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case errors.Is(err, shop.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_quantity"})
	case errors.Is(err, shop.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "empty_cart"})
	case errors.Is(err, shop.ErrInvalidState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid_state"})
	case errors.Is(err, shop.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// ---- response DTOs; prices rendered as fixed-point strings ----

type ProductResp struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Stock       int    `json:"stock"`
	Price       string `json:"price"`
}

func toProductResp(p shop.Product) ProductResp {
	return ProductResp{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Desc,
		Stock:       p.Stock,
		Price:       shop.PriceString(p.PriceCents),
	}
}

type CartLineResp struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	Price     string `json:"price"`
	LineTotal string `json:"line_total"`
}

type CartResp struct {
	Items []CartLineResp `json:"items"`
	Total string         `json:"total"`
}

func toCartResp(lines []shop.CartLine) CartResp {
	resp := CartResp{Items: make([]CartLineResp, 0, len(lines))}
	total := 0
	for _, l := range lines {
		lt := shop.LineTotalCents(l.Qty, l.PriceCents)
		total += lt
		resp.Items = append(resp.Items, CartLineResp{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Qty:       l.Qty,
			Price:     shop.PriceString(l.PriceCents),
			LineTotal: shop.PriceString(lt),
		})
	}
	resp.Total = shop.PriceString(total)
	return resp
}

type OrderLineResp struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Price     string `json:"price"`
	LineTotal string `json:"line_total"`
}

type OrderResp struct {
	ID              string          `json:"id"`
	Status          shop.Status     `json:"status"`
	Total           string          `json:"total"`
	ShippingAddress string          `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []OrderLineResp `json:"lines"`
}

func toOrderResp(o *shop.Order) OrderResp {
	resp := OrderResp{
		ID:              o.ID,
		Status:          o.Status,
		Total:           shop.PriceString(o.TotalCents),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Lines:           make([]OrderLineResp, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResp{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			Price:     shop.PriceString(l.PriceCents),
			LineTotal: shop.PriceString(shop.LineTotalCents(l.Qty, l.PriceCents)),
		})
	}
	return resp
}
