package shop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusPending, StatusPending, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	for _, to := range []Status{StatusPending, StatusConfirmed, StatusCancelled} {
		require.False(t, CanTransition(StatusCancelled, to))
	}
}
