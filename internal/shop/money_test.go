package shop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceString(t *testing.T) {
	cases := []struct {
		cents int
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1000, "10.00"},
		{1999, "19.99"},
		{123456, "1234.56"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, PriceString(c.cents))
	}
}

func TestLineTotalCents(t *testing.T) {
	// cart = [(productA, qty=2, price=10.00)] -> 20.00
	require.Equal(t, 2000, LineTotalCents(2, 1000))
	require.Equal(t, "20.00", PriceString(LineTotalCents(2, 1000)))
}
