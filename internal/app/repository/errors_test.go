package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr(nil))
	require.ErrorIs(t, mapErr(gorm.ErrRecordNotFound), ErrNotFound)
	require.ErrorIs(t, mapErr(fmt.Errorf("save: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)
	require.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "uniq_payment_ref_number"}), ErrDuplicate)

	other := errors.New("connection reset")
	require.Equal(t, other, mapErr(other))
	require.NotErrorIs(t, mapErr(&pgconn.PgError{Code: "40001"}), ErrDuplicate)
}
