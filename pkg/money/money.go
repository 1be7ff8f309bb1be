// Package money collects the arbitrary-precision integer helpers used by
// every component that handles base-token-equivalent amounts. Nothing that
// crosses a persistence boundary is allowed to round-trip through float64;
// this package is the one place that truncation/rounding rules live.
package money

import "math/big"

// Zero is a convenience non-nil zero value; callers must not mutate it.
func Zero() *big.Int { return big.NewInt(0) }

// MulDiv computes floor(a*b/c) using arbitrary precision, the shape every
// share-accounting formula in §4.2 reduces to. A zero c yields 0.
func MulDiv(a, b, c *big.Int) *big.Int {
	if c.Sign() == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(a, b)
	return num.Div(num, c)
}

// MulDivCeil is MulDiv rounded up instead of truncated.
func MulDivCeil(a, b, c *big.Int) *big.Int {
	if c.Sign() == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(a, b)
	q, r := new(big.Int), new(big.Int)
	q.DivMod(num, c, r)
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// SaturatingSub returns a-b, floored at zero rather than going negative —
// the "saturating subtraction" the venue adaptors rely on when reserving
// transfer fees out of a swap result.
func SaturatingSub(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	if d.Sign() < 0 {
		return big.NewInt(0)
	}
	return d
}

// PercentOf computes floor(amount*pct/100) for pct in [0,100].
func PercentOf(amount *big.Int, pct int64) *big.Int {
	return MulDiv(amount, big.NewInt(pct), big.NewInt(100))
}

// IsPositive reports whether v is non-nil and strictly greater than zero.
func IsPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

// IsZero reports whether v is nil or exactly zero.
func IsZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}

// Add returns a+b, tolerating nil operands as zero.
func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(nz(a), nz(b))
}

// Sub returns a-b, tolerating nil operands as zero. Never saturates; callers
// that need a floor at zero must call SaturatingSub explicitly.
func Sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(nz(a), nz(b))
}

func nz(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// ToFloat converts a base-token-equivalent integer to float64 for the sole
// consumers permitted to touch floating point: yield and score math.
func ToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}
