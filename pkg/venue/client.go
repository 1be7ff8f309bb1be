// Package venue implements the Liquidity-Client abstraction (§4.4): two
// adaptors over dissimilar venue semantics behind one Go interface.
package venue

import (
	"context"
	"math/big"

	"github.com/liquidops/apyvault/pkg/pool"
)

// AddResult is the outcome of adding liquidity to a pool (§4.4).
type AddResult struct {
	Token0Amount             *big.Int
	Token1Amount             *big.Int
	PositionID               string
	BaseTokenEquivalentTotal *big.Int
}

// WithdrawResult is the outcome of withdrawing liquidity from a pool.
type WithdrawResult struct {
	Token0Amount *big.Int
	Token1Amount *big.Int
}

// PositionInfo is a point-in-time read of a live position.
type PositionInfo struct {
	PositionID  string
	Token0Amount *big.Int
	Token1Amount *big.Int
	USDAmount0   *big.Int
	USDAmount1   *big.Int
}

// PoolData is the pool-level (not position-level) read §4.4 exposes.
type PoolData struct {
	TVL *big.Int
}

// LiquidityClient is the operation set the Engine and Pool-Stats consume,
// identical across both venue adaptors (§9 Design Notes: "an enum
// LiquidityClient{VenueA(VenueAClient), VenueB(VenueBClient)} with
// identical method signatures, or a trait object at the boundary only").
type LiquidityClient interface {
	Venue() pool.Venue
	AddLiquidityToPool(ctx context.Context, baseTokenAmount *big.Int) (AddResult, error)
	WithdrawLiquidityFromPool(ctx context.Context, totalShares, shares *big.Int) (WithdrawResult, error)
	GetPositionByID(ctx context.Context, positionID string) (PositionInfo, error)
	GetPoolData(ctx context.Context) (PoolData, error)
}
