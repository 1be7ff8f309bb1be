// Package util implements the concentrated-liquidity AMM math VenueB's
// mint/rebalance flow needs: tick <-> sqrt-price conversion, the
// optimal-amounts-for-a-range solve, and tick-bound/slippage helpers.
// Ported from the standard Uniswap V3 TickMath/LiquidityAmounts formulas
// the teacher's Mint() already consumes as util.* calls.
package util

import (
	"errors"
	"math/big"
)

// tick magic-ratio table: bit i holds 2^128 / sqrt(1.0001)^(2^i) in hex,
// the same constants TickMath.getSqrtRatioAtTick folds over one bit at a
// time instead of computing a fractional power directly.
var tickRatios = []string{
	"0xfffcb933bd6fad37aa2d162d1a594001",
	"0xfff97272373d413259a46990580e213a",
	"0xfff2e50f5f656932ef12357cf3c7fdcc",
	"0xffe5caca7e10e4e61c3624eaa0941cd0",
	"0xffcb9843d60f6159c9db58835c926644",
	"0xff973b41fa98c081472e6896dfb254c0",
	"0xff2ea16466c96a3843ec78b326b52861",
	"0xfe5dee046a99a2a811c461f1969c3053",
	"0xfcbe86c7900a88aedcffc83b479aa3a4",
	"0xf987a7253ac413176f2b074cf7815e54",
	"0xf3392b0822b70005940c7a398e4b70f3",
	"0xe7159475a2c29b7443b29c7fa6e889d9",
	"0xd097f3bdfd2022b8845ad8f792aa5825",
	"0xa9f746462d870fdf8a65dc1f90e061e5",
	"0x70d869a156d2a1b890bb3df62baf32f7",
	"0x31be135f97d08fd981231505542fcfa6",
	"0x9aa508b5b7a84e1c677de54f3e99bc9",
	"0x5d6af8dedb81196699c329225ee604",
	"0x2216e584f5fa1ea926041bedfe98",
	"0x48a170391f7dc42444e8fa2",
}

const maxTick = 887272

// TickToSqrtPriceX96 returns sqrt(1.0001^tick) * 2^96 as a Q64.96 fixed
// point integer, matching Uniswap V3's TickMath.getSqrtRatioAtTick.
func TickToSqrtPriceX96(tick int) *big.Int {
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > maxTick {
		absTick = maxTick
	}

	ratio := new(big.Int)
	if absTick&0x1 != 0 {
		ratio.SetString("fffcb933bd6fad37aa2d162d1a594001", 16)
	} else {
		ratio.SetString("100000000000000000000000000000000", 16)
	}

	for i, hexConst := range tickRatios[1:] {
		bit := 1 << uint(i+1)
		if absTick&bit == 0 {
			continue
		}
		c := new(big.Int)
		c.SetString(hexConst[2:], 16)
		ratio.Mul(ratio, c)
		ratio.Rsh(ratio, 128)
	}

	if tick > 0 {
		maxU256 := new(big.Int).Lsh(big.NewInt(1), 256)
		maxU256.Sub(maxU256, big.NewInt(1))
		ratio.Div(maxU256, ratio)
	}

	// ratio is Q128.128; shift down to Q64.96, rounding up on remainder.
	result := new(big.Int).Rsh(ratio, 32)
	rem := new(big.Int).And(ratio, big.NewInt((1<<32)-1))
	if rem.Sign() != 0 {
		result.Add(result, big.NewInt(1))
	}
	return result
}

// SqrtPriceToPrice returns (sqrtPriceX96 / 2^96)^2 as a big.Float.
func SqrtPriceToPrice(sqrtPriceX96 *big.Int) *big.Float {
	q96 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	sqrtPrice := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96)
	return new(big.Float).Mul(sqrtPrice, sqrtPrice)
}

// liquidityForAmount0 returns the liquidity supported by amount0 of token0
// between sqrtRatioA and sqrtRatioB (sqrtRatioA < sqrtRatioB).
func liquidityForAmount0(sqrtRatioA, sqrtRatioB, amount0 *big.Int) *big.Int {
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	intermediate := new(big.Int).Mul(sqrtRatioA, sqrtRatioB)
	intermediate.Div(intermediate, q96)
	diff := new(big.Int).Sub(sqrtRatioB, sqrtRatioA)
	if diff.Sign() <= 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount0, intermediate)
	return num.Div(num, diff)
}

// liquidityForAmount1 returns the liquidity supported by amount1 of token1
// between sqrtRatioA and sqrtRatioB (sqrtRatioA < sqrtRatioB).
func liquidityForAmount1(sqrtRatioA, sqrtRatioB, amount1 *big.Int) *big.Int {
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	diff := new(big.Int).Sub(sqrtRatioB, sqrtRatioA)
	if diff.Sign() <= 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount1, q96)
	return num.Div(num, diff)
}

func orderSqrtRatios(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// ComputeAmounts solves for the liquidity (and the token0/token1 amounts it
// consumes) that fits within amount0Max/amount1Max over [tickLower,
// tickUpper] given the pool's current tick and sqrt price.
func ComputeAmounts(sqrtPriceX96 *big.Int, tick, tickLower, tickUpper int, amount0Max, amount1Max *big.Int) (*big.Int, *big.Int, *big.Int) {
	sqrtRatioA := TickToSqrtPriceX96(tickLower)
	sqrtRatioB := TickToSqrtPriceX96(tickUpper)
	sqrtRatioA, sqrtRatioB = orderSqrtRatios(sqrtRatioA, sqrtRatioB)

	var liquidity *big.Int
	switch {
	case tick <= tickLower:
		liquidity = liquidityForAmount0(sqrtRatioA, sqrtRatioB, amount0Max)
	case tick >= tickUpper:
		liquidity = liquidityForAmount1(sqrtRatioA, sqrtRatioB, amount1Max)
	default:
		l0 := liquidityForAmount0(sqrtPriceX96, sqrtRatioB, amount0Max)
		l1 := liquidityForAmount1(sqrtRatioA, sqrtPriceX96, amount1Max)
		if l0.Cmp(l1) < 0 {
			liquidity = l0
		} else {
			liquidity = l1
		}
	}

	amount0, amount1, _ := CalculateTokenAmountsFromLiquidity(liquidity, sqrtPriceX96, int32(tickLower), int32(tickUpper))
	return amount0, amount1, liquidity
}

// CalculateTokenAmountsFromLiquidity is the inverse of ComputeAmounts: given
// a liquidity value and a range, returns the token0/token1 amounts it
// currently represents at sqrtPriceX96.
func CalculateTokenAmountsFromLiquidity(liquidity, sqrtPriceX96 *big.Int, tickLower, tickUpper int32) (*big.Int, *big.Int, error) {
	if liquidity == nil || liquidity.Sign() == 0 {
		return big.NewInt(0), big.NewInt(0), nil
	}
	sqrtRatioA := TickToSqrtPriceX96(int(tickLower))
	sqrtRatioB := TickToSqrtPriceX96(int(tickUpper))
	sqrtRatioA, sqrtRatioB = orderSqrtRatios(sqrtRatioA, sqrtRatioB)
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)

	var amount0, amount1 *big.Int
	switch {
	case sqrtPriceX96.Cmp(sqrtRatioA) <= 0:
		diff := new(big.Int).Sub(sqrtRatioB, sqrtRatioA)
		num := new(big.Int).Mul(liquidity, diff)
		num.Mul(num, q96)
		denom := new(big.Int).Mul(sqrtRatioA, sqrtRatioB)
		amount0 = num.Div(num, denom)
		amount1 = big.NewInt(0)
	case sqrtPriceX96.Cmp(sqrtRatioB) >= 0:
		amount0 = big.NewInt(0)
		amount1 = new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtRatioB, sqrtRatioA))
		amount1.Div(amount1, q96)
	default:
		diff0 := new(big.Int).Sub(sqrtRatioB, sqrtPriceX96)
		num0 := new(big.Int).Mul(liquidity, diff0)
		num0.Mul(num0, q96)
		denom0 := new(big.Int).Mul(sqrtPriceX96, sqrtRatioB)
		amount0 = num0.Div(num0, denom0)

		amount1 = new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtPriceX96, sqrtRatioA))
		amount1.Div(amount1, q96)
	}
	return amount0, amount1, nil
}

// CalculateTickBounds centers a [tickLower, tickUpper] range rangeWidth
// ticks-per-side around currentTick, rounded to the pool's tickSpacing.
func CalculateTickBounds(currentTick int32, rangeWidth, tickSpacing int) (int32, int32, error) {
	if tickSpacing <= 0 {
		return 0, 0, errors.New("tickSpacing must be positive")
	}
	if rangeWidth <= 0 {
		return 0, 0, errors.New("rangeWidth must be positive")
	}
	spacing := int32(tickSpacing)
	rounded := (currentTick / spacing) * spacing
	width := int32(rangeWidth) * spacing
	lower := rounded - width
	upper := rounded + width
	if lower >= upper {
		return 0, 0, errors.New("invalid tick bounds computed")
	}
	return lower, upper, nil
}

// CalculateMinAmount applies a slippage discount: floor(amount*(100-pct)/100).
func CalculateMinAmount(amount *big.Int, slippagePct int) *big.Int {
	keep := big.NewInt(int64(100 - slippagePct))
	out := new(big.Int).Mul(amount, keep)
	return out.Div(out, big.NewInt(100))
}

// CalculateRebalanceAmounts decides which side of a two-token balance is
// overweight relative to the pool's current price and by how much,
// returning 0 for "swap token0 -> token1" or 1 for "swap token1 -> token0".
func CalculateRebalanceAmounts(balance0, balance1, sqrtPriceX96 *big.Int) (int, *big.Int, error) {
	if balance0 == nil || balance1 == nil || sqrtPriceX96 == nil {
		return 0, nil, errors.New("nil input to CalculateRebalanceAmounts")
	}
	price := SqrtPriceToPrice(sqrtPriceX96)
	value0 := new(big.Float).Mul(new(big.Float).SetInt(balance0), price)
	value1 := new(big.Float).SetInt(balance1)

	diff := new(big.Float).Sub(value0, value1)
	half := new(big.Float).Quo(diff, big.NewFloat(2))

	if diff.Sign() > 0 {
		swapAmount0, _ := new(big.Float).Quo(half, price).Int(nil)
		return 0, swapAmount0, nil
	}
	negHalf := new(big.Float).Neg(half)
	swapAmount1, _ := negHalf.Int(nil)
	return 1, swapAmount1, nil
}
