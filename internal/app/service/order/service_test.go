package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

func TestApplyShippingUpdate(t *testing.T) {
	si := &models.ShippingInfo{Status: types.ShippingStatusProcessing}

	require.NoError(t, applyShippingUpdate(si, &UpdateShippingInfoRequest{Status: types.ShippingStatusShipped, TrackingNumber: "TRK-1"}))
	assert.Equal(t, types.ShippingStatusShipped, si.Status)
	assert.Equal(t, "TRK-1", si.TrackingNumber)

	// Empty tracking number keeps the stored one.
	require.NoError(t, applyShippingUpdate(si, &UpdateShippingInfoRequest{Status: types.ShippingStatusDelivered}))
	assert.Equal(t, types.ShippingStatusDelivered, si.Status)
	assert.Equal(t, "TRK-1", si.TrackingNumber)

	err := applyShippingUpdate(si, &UpdateShippingInfoRequest{Status: types.ShippingStatusProcessing})
	assert.ErrorIs(t, err, ErrInvalidShippingTransition)
	assert.Equal(t, types.ShippingStatusDelivered, si.Status)

	assert.Error(t, applyShippingUpdate(si, nil))
}

func TestScanOrders_RejectsUnknownFields(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.ScanOrders(context.Background(), nil)
	assert.Error(t, err)

	_, err = s.ScanOrders(context.Background(), &ScanOrdersRequest{SortBy: "password"})
	assert.Error(t, err)

	_, err = s.ScanOrders(context.Background(), &ScanOrdersRequest{
		Filters: []*types.CommonFilter{{Field: "secret", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
	})
	assert.Error(t, err)
}
