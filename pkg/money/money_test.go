package money

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulDivFloors(t *testing.T) {
	got := MulDiv(big.NewInt(10), big.NewInt(3), big.NewInt(4))
	assert.Equal(t, big.NewInt(7), got) // floor(30/4) = 7
}

func TestMulDivByZeroReturnsZero(t *testing.T) {
	got := MulDiv(big.NewInt(10), big.NewInt(3), big.NewInt(0))
	assert.Equal(t, big.NewInt(0), got)
}

func TestMulDivCeilRoundsUp(t *testing.T) {
	got := MulDivCeil(big.NewInt(10), big.NewInt(3), big.NewInt(4))
	assert.Equal(t, big.NewInt(8), got) // ceil(30/4) = 8
}

func TestMulDivCeilExact(t *testing.T) {
	got := MulDivCeil(big.NewInt(8), big.NewInt(1), big.NewInt(4))
	assert.Equal(t, big.NewInt(2), got)
}

func TestSaturatingSubFloorsAtZero(t *testing.T) {
	assert.Equal(t, big.NewInt(0), SaturatingSub(big.NewInt(3), big.NewInt(5)))
	assert.Equal(t, big.NewInt(2), SaturatingSub(big.NewInt(5), big.NewInt(3)))
}

func TestPercentOf(t *testing.T) {
	got := PercentOf(big.NewInt(1000), 15)
	assert.Equal(t, big.NewInt(150), got)
}

func TestIsPositiveAndIsZero(t *testing.T) {
	assert.True(t, IsPositive(big.NewInt(1)))
	assert.False(t, IsPositive(big.NewInt(0)))
	assert.False(t, IsPositive(nil))

	assert.True(t, IsZero(nil))
	assert.True(t, IsZero(big.NewInt(0)))
	assert.False(t, IsZero(big.NewInt(1)))
}

func TestAddSubToleratesNil(t *testing.T) {
	assert.Equal(t, big.NewInt(5), Add(big.NewInt(5), nil))
	assert.Equal(t, big.NewInt(5), Add(nil, big.NewInt(5)))
	assert.Equal(t, big.NewInt(-5), Sub(nil, big.NewInt(5)))
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, float64(0), ToFloat(nil))
	assert.Equal(t, float64(42), ToFloat(big.NewInt(42)))
}
