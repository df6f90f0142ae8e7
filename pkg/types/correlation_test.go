package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResNumber_IsParseableAndUnique(t *testing.T) {
	a := NewResNumber()
	b := NewResNumber()
	require.Len(t, a.String(), 32)
	require.NotEqual(t, a, b)

	parsed, err := ParseResNumber(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParseResNumber(t *testing.T) {
	cases := map[string]bool{
		"12345":                    true,
		" 0190f5a2b3c4 ":           true,
		"":                         false,
		"1; DROP TABLE payment":    false,
		"abc'def":                  false,
		string(make([]byte, 51)):   false,
		"0123456789abcdef01234567": true,
	}
	for in, ok := range cases {
		_, err := ParseResNumber(in)
		if ok {
			assert.NoError(t, err, in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidResNumber, in)
		}
	}
}

func TestParseRefNumber(t *testing.T) {
	ref, err := ParseRefNumber("GmshtyjwKSv8H0Ry3v+5dbzQ4t2h/X==")
	require.NoError(t, err)
	assert.Equal(t, "GmshtyjwKSv8H0Ry3v+5dbzQ4t2h/X==", ref.String())

	_, err = ParseRefNumber("")
	assert.ErrorIs(t, err, ErrInvalidRefNumber)
	_, err = ParseRefNumber("a b")
	assert.ErrorIs(t, err, ErrInvalidRefNumber)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, TransactionStatusPending.CanTransition(TransactionStatusSuccessful))
	assert.True(t, TransactionStatusPending.CanTransition(TransactionStatusVerificationPending))
	assert.True(t, TransactionStatusVerificationPending.CanTransition(TransactionStatusFailed))
	assert.False(t, TransactionStatusSuccessful.CanTransition(TransactionStatusFailed))
	assert.False(t, TransactionStatusFailed.CanTransition(TransactionStatusSuccessful))
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.False(t, TransactionStatusVerificationPending.IsTerminal())

	assert.True(t, OrderStatusPending.CanTransition(OrderStatusPaid))
	assert.False(t, OrderStatusPaid.CanTransition(OrderStatusCanceled))
	assert.False(t, OrderStatusCanceled.CanTransition(OrderStatusPaid))

	assert.True(t, ShippingStatusProcessing.CanTransition(ShippingStatusShipped))
	assert.False(t, ShippingStatusDelivered.CanTransition(ShippingStatusProcessing))
}
