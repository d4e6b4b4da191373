package shop

import "time"

type Product struct {
	ID         string
	SKU        string
	Name       string
	Category   string
	Desc       string
	Stock      int
	PriceCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CartItem struct {
	UserID    string
	ProductID string
	Qty       int
	UpdatedAt time.Time
}

// CartLine is a cart item joined with the catalog, as returned to clients.
type CartLine struct {
	ProductID  string
	SKU        string
	Name       string
	Qty        int
	PriceCents int
}

type Order struct {
	ID              string
	UserID          string
	Status          Status // lihat status.go
	TotalCents      int
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []OrderLine
}

// OrderLine snapshots qty and unit price at checkout time. It never changes
// after the order is created, regardless of later catalog edits.
type OrderLine struct {
	OrderID    string
	ProductID  string
	Qty        int
	PriceCents int
}
