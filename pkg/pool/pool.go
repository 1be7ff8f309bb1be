// Package pool defines the Pool entity (§3.1): a two-token liquidity pool
// at a specific venue, with an order-insensitive deterministic identifier.
package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Venue tags which concrete adaptor owns a Pool. The design admits more
// than the two supported today (§3.1).
type Venue int

const (
	VenueA Venue = iota
	VenueB
)

func (v Venue) String() string {
	switch v {
	case VenueA:
		return "VenueA"
	case VenueB:
		return "VenueB"
	default:
		return "Unknown"
	}
}

// Pool identifies a two-token liquidity pool at a specific venue.
// Token0 != Token1 is an invariant enforced by New.
type Pool struct {
	id     string
	Token0 common.Address
	Token1 common.Address
	Venue  Venue
}

// New constructs a Pool, computing its canonical order-insensitive id.
// Returns an error-free zero Pool and false if token0 == token1.
func New(token0, token1 common.Address, venue Venue) (Pool, bool) {
	if token0 == token1 {
		return Pool{}, false
	}
	return Pool{id: canonicalID(token0, token1, venue), Token0: token0, Token1: token1, Venue: venue}, true
}

// ID returns the deterministic, order-insensitive pool identifier.
func (p Pool) ID() string { return p.id }

// EquivalentTo reports whether two pools share a venue and token set,
// regardless of token0/token1 order (P10).
func (p Pool) EquivalentTo(o Pool) bool {
	return p.Venue == o.Venue && p.id == o.id
}

func canonicalID(token0, token1 common.Address, venue Venue) string {
	a, b := token0, token1
	if a.Hex() > b.Hex() {
		a, b = b, a
	}
	buf := make([]byte, 0, 40+40+1)
	buf = append(buf, a.Bytes()...)
	buf = append(buf, b.Bytes()...)
	buf = append(buf, byte(venue))
	return common.BytesToHash(crypto.Keccak256(buf)).Hex()
}
