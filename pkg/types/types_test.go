package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignableToNumericPromotion(t *testing.T) {
	require.True(t, Int.AssignableTo(Float))
	require.False(t, Float.AssignableTo(Int))
}

func TestAssignableToNullRule(t *testing.T) {
	require.True(t, Null.AssignableTo(Custom("Enemy")))
	require.True(t, Null.AssignableTo(BtNode))
	require.False(t, Null.AssignableTo(Int))
	require.False(t, Null.AssignableTo(String))
}

func TestAssignableToSameType(t *testing.T) {
	require.True(t, Bool.AssignableTo(Bool))
	require.True(t, Custom("Enemy").AssignableTo(Custom("Enemy")))
	require.False(t, Custom("Enemy").AssignableTo(Custom("Ally")))
}

func TestEqualAndString(t *testing.T) {
	require.True(t, Int.Equal(Int))
	require.False(t, Int.Equal(Float))
	require.False(t, Custom("Enemy").Equal(Custom("Ally")))
	require.Equal(t, "Enemy", Custom("Enemy").String())
	require.Equal(t, "Int", Int.String())
}

func TestIsBtResult(t *testing.T) {
	require.True(t, BtStatus.IsBtResult())
	require.True(t, BtNode.IsBtResult())
	require.False(t, Bool.IsBtResult())
}

func TestIsNumeric(t *testing.T) {
	require.True(t, Int.IsNumeric())
	require.True(t, Float.IsNumeric())
	require.False(t, Bool.IsNumeric())
	require.False(t, String.IsNumeric())
}
