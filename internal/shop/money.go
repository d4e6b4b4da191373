package shop

import "github.com/shopspring/decimal"

// Prices are stored as integer cents; rendering to clients goes through
// shopspring/decimal so totals always carry two decimal places.

func PriceString(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}

func LineTotalCents(qty, priceCents int) int {
	return qty * priceCents
}
