package shop

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsufficientStockCarriesProduct(t *testing.T) {
	var err error = &InsufficientStockError{ProductID: "p-1", Required: 3, Available: 1}

	ise, ok := IsInsufficientStock(err)
	require.True(t, ok)
	require.Equal(t, "p-1", ise.ProductID)
	require.Equal(t, 3, ise.Required)
	require.Equal(t, 1, ise.Available)
	require.Contains(t, err.Error(), "p-1")
}

func TestInsufficientStockThroughWrapping(t *testing.T) {
	err := fmt.Errorf("checkout: %w", &InsufficientStockError{ProductID: "p-2", Required: 2, Available: 0})

	ise, ok := IsInsufficientStock(err)
	require.True(t, ok)
	require.Equal(t, "p-2", ise.ProductID)
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrInvalidQuantity, ErrEmptyCart, ErrInvalidState, ErrConflict}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			require.False(t, errors.Is(a, b))
		}
	}

	_, ok := IsInsufficientStock(ErrNotFound)
	require.False(t, ok)
}

func TestNotFoundWrappedWithProduct(t *testing.T) {
	err := fmt.Errorf("product %s: %w", "p-9", ErrNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "p-9")
}
