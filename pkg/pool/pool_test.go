package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestNewRejectsIdenticalTokens(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	_, ok := New(addr, addr, VenueA)
	assert.False(t, ok)
}

func TestIDIsOrderInsensitive(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	p1, ok := New(a, b, VenueA)
	assert.True(t, ok)
	p2, ok := New(b, a, VenueA)
	assert.True(t, ok)

	assert.Equal(t, p1.ID(), p2.ID())
}

func TestIDDiffersByVenue(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	pA, _ := New(a, b, VenueA)
	pB, _ := New(a, b, VenueB)

	assert.NotEqual(t, pA.ID(), pB.ID())
}

func TestEquivalentTo(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")
	c := common.HexToAddress("0x3333333333333333333333333333333333333333")

	p1, _ := New(a, b, VenueA)
	p2, _ := New(b, a, VenueA)
	p3, _ := New(a, c, VenueA)

	assert.True(t, p1.EquivalentTo(p2))
	assert.False(t, p1.EquivalentTo(p3))
}
