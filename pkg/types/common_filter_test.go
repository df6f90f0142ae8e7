package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFilters(t *testing.T) {
	allowed := []string{"status", "user_id"}

	require.NoError(t, ValidateFilters([]*CommonFilter{
		{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"PENDING"}},
		{Field: "user_id", Operator: CommonFilterOperatorIn, Values: []any{"u1", "u2"}},
	}, allowed))

	require.Error(t, ValidateFilters([]*CommonFilter{
		{Field: "status; drop table payment", Operator: CommonFilterOperatorEq, Values: []any{"x"}},
	}, allowed))

	require.Error(t, ValidateFilters([]*CommonFilter{
		{Field: "status", Operator: "like", Values: []any{"x"}},
	}, allowed))

	require.Error(t, ValidateFilters([]*CommonFilter{nil}, allowed))
}
