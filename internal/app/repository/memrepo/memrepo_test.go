package memrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

func TestTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.CreateTransaction(ctx, &models.Transaction{ID: "t1", Status: types.TransactionStatusPending}))

	boom := errors.New("boom")
	err := r.Transaction(ctx, func(tx repository.Repository) error {
		txn, err := tx.GetTransaction(ctx, "t1")
		require.NoError(t, err)
		txn.Status = types.TransactionStatusSuccessful
		require.NoError(t, tx.SaveTransaction(ctx, txn))
		return boom
	})
	require.ErrorIs(t, err, boom)

	txn, err := r.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, types.TransactionStatusPending, txn.Status)
}

func TestPayment_UniqueRefNumber(t *testing.T) {
	ctx := context.Background()
	r := New()
	ref := types.RefNumber("ref-1")
	require.NoError(t, r.CreatePayment(ctx, &models.Payment{ID: "p1", TransactionID: "t1", ResNumber: "r1", RefNumber: &ref}))
	require.NoError(t, r.CreatePayment(ctx, &models.Payment{ID: "p2", TransactionID: "t2", ResNumber: "r2"}))

	p2, err := r.GetPaymentByResNumber(ctx, "r2", true)
	require.NoError(t, err)
	p2.RefNumber = &ref
	require.ErrorIs(t, r.SavePayment(ctx, p2), repository.ErrDuplicate)

	require.ErrorIs(t, r.CreatePayment(ctx, &models.Payment{ID: "p3", TransactionID: "t3", ResNumber: "r1"}), repository.ErrDuplicate)
}

func TestFailInjection(t *testing.T) {
	ctx := context.Background()
	r := New()
	boom := errors.New("boom")
	r.Fail("GetOrder", boom)
	_, err := r.GetOrder(ctx, "x")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, r.Calls("GetOrder"))

	r.Fail("GetOrder", nil)
	_, err = r.GetOrder(ctx, "x")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
