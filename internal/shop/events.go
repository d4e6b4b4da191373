package shop

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "shop-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type LineSnapshot struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type OrderPlacedPayload struct {
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Lines      []LineSnapshot `json:"lines"`
	TotalCents int            `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Status  Status `json:"status"`
}
