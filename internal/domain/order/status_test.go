package order

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("refunded")
	var invalid *InvalidStatusError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "refunded", invalid.Value)

	_, err = ParseStatus("")
	require.ErrorAs(t, err, &invalid)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusPreparing, true},
		{StatusPreparing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
		{StatusDelivered, StatusDelivered, true},
		{Status("bogus"), Status("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestSources(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusPaid, StatusPending}, Sources(StatusPaid))
	assert.ElementsMatch(t,
		[]Status{StatusCancelled, StatusPending, StatusPaid, StatusPreparing},
		Sources(StatusCancelled),
	)
	assert.Equal(t, []Status{StatusPending}, Sources(StatusPending))
}

func TestTransitionError_Is(t *testing.T) {
	err := errors.Wrap(&TransitionError{From: StatusDelivered, To: StatusPending}, "update")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "delivered to pending")
}
