// Package strategy implements the Strategy entity (§3.1) and the §4.2
// share-accounting arithmetic, grounded on the teacher's arbitrary-
// precision big.Int discipline (never round-trip money through float64).
package strategy

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/money"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/rebalance"
)

var buildErrorCode = apyerr.BuildErrorCode(apyerr.AreaLibraries, apyerr.DomainLedger, "01")

// Catalog is the static, per-strategy metadata table (§9 Design Notes:
// "a single Strategy value plus a separate StrategyCatalog"). Seeded once
// at startup from configuration; never mutated by deposit/withdraw/rebalance.
type Catalog struct {
	ID             uint64
	Name           string
	Description    string
	BaseToken      common.Address
	CandidatePools []pool.Pool
	RiskProfile    rebalance.Profile
}

// Validate checks invariants 4-5 of §3.1 that apply to the static catalog:
// candidate_pools is non-empty and base_token equals one side of every
// candidate pool.
func (c Catalog) Validate() error {
	if len(c.CandidatePools) == 0 {
		return apyerr.Validation(buildErrorCode(apyerr.KindValidation, 1), "strategy.Catalog.Validate",
			"candidate_pools must be non-empty", nil)
	}
	for _, p := range c.CandidatePools {
		if p.Token0 != c.BaseToken && p.Token1 != c.BaseToken {
			return apyerr.Validation(buildErrorCode(apyerr.KindValidation, 2), "strategy.Catalog.Validate",
				"base_token must equal one side of every candidate pool", map[string]string{"pool_id": p.ID()})
		}
	}
	return nil
}

// PositionHandle is the venue-issued opaque handle for an open position.
type PositionHandle string

// State is the mutable part of a Strategy: everything the registry
// persists and every mutator updates. Split from the static catalog entry
// (name/description/base token/candidate pools) per the Design Notes'
// "single Strategy value plus a separate StrategyCatalog" re-architecture.
type State struct {
	CurrentPool               *pool.Pool
	PositionID                *PositionHandle
	TotalBalance              *big.Int
	TotalShares               *big.Int
	UserShares                map[string]*big.Int
	InitialDeposits           map[string]*big.Int
	CurrentLiquidity          *big.Int
	CurrentLiquidityUpdatedAt *int64
	LastRebalanceAt           *uint64
	Enabled                   bool
}

// NewState returns a zero-value State ready for a freshly catalogued
// strategy: no position, no shares, enabled.
func NewState() *State {
	return &State{
		TotalBalance:    big.NewInt(0),
		TotalShares:     big.NewInt(0),
		UserShares:      make(map[string]*big.Int),
		InitialDeposits: make(map[string]*big.Int),
		Enabled:         true,
	}
}

// CheckInvariants re-asserts §3.1 invariants 1-3 (4-5 are catalog-level and
// checked at registry load time, not on every mutation).
func (s *State) CheckInvariants(candidates []pool.Pool) error {
	sum := big.NewInt(0)
	for _, v := range s.UserShares {
		sum.Add(sum, v)
	}
	if sum.Cmp(s.TotalShares) != 0 {
		return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 1), "strategy.CheckInvariants",
			"total_shares does not equal sum of user_shares", nil)
	}
	if (s.CurrentPool == nil) != (s.PositionID == nil) {
		return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 2), "strategy.CheckInvariants",
			"current_pool and position_id must be simultaneously Some or None", nil)
	}
	if s.TotalShares.Sign() == 0 {
		if s.CurrentPool != nil || s.CurrentLiquidity != nil {
			return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 3), "strategy.CheckInvariants",
				"zero total_shares must imply no current pool and no current liquidity", nil)
		}
	}
	if s.CurrentPool != nil {
		found := false
		for _, c := range candidates {
			if c.EquivalentTo(*s.CurrentPool) {
				found = true
				break
			}
		}
		if !found {
			return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 4), "strategy.CheckInvariants",
				"current_pool is not among candidate_pools", nil)
		}
	}
	for u := range s.UserShares {
		if _, ok := s.InitialDeposits[u]; !ok {
			return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 5), "strategy.CheckInvariants",
				"user_shares and initial_deposits key sets diverge", nil)
		}
	}
	return nil
}

// DepositShares computes the new-shares amount for a deposit of 'a'
// base-token-equivalent, per §4.2: bootstrap 1:1 if total_shares or
// total_balance is zero, else proportional a*S/B. Must be called with the
// registry's most-recent (B, S) read at the committing instant (§5), not
// at request entry.
func DepositShares(a, totalBalance, totalShares *big.Int) *big.Int {
	if totalShares.Sign() == 0 || totalBalance.Sign() == 0 {
		return new(big.Int).Set(a)
	}
	return money.MulDiv(a, totalShares, totalBalance)
}

// ApplyDeposit mutates s to record a commit of a deposit of 'amount'
// base-token-equivalent by user, minting sharesOut new shares (§4.3 step 5).
func (s *State) ApplyDeposit(user string, amount, sharesOut *big.Int) {
	s.TotalShares = money.Add(s.TotalShares, sharesOut)
	s.UserShares[user] = money.Add(s.UserShares[user], sharesOut)
	s.InitialDeposits[user] = money.Add(s.InitialDeposits[user], amount)
	s.TotalBalance = money.Add(s.TotalBalance, amount)
}

// WithdrawResult carries the per-withdraw accounting §4.2 specifies.
type WithdrawResult struct {
	SharesWithdrawn   *big.Int
	RemainingShares   *big.Int
	NewInitialDeposit *big.Int
}

// PlanWithdraw computes the share/initial-deposit adjustments for a
// withdrawal of pct percent of user's shares, without mutating state —
// callers commit via ApplyWithdraw once the venue-side withdrawal has
// succeeded.
func PlanWithdraw(userShares, userInitialDeposit *big.Int, pct int64) WithdrawResult {
	sharesToWithdraw := money.PercentOf(userShares, pct)
	remaining := money.Sub(userShares, sharesToWithdraw)
	var newInitial *big.Int
	if userShares.Sign() == 0 {
		newInitial = big.NewInt(0)
	} else {
		newInitial = money.MulDiv(userInitialDeposit, remaining, userShares)
	}
	return WithdrawResult{SharesWithdrawn: sharesToWithdraw, RemainingShares: remaining, NewInitialDeposit: newInitial}
}

// ApplyWithdraw commits a planned withdrawal to state (§4.2/§4.5 step 5):
// decrements shares and total_balance by only the removed portion of cost
// basis, and erases the user's entries entirely on a full exit.
func (s *State) ApplyWithdraw(user string, plan WithdrawResult) {
	oldInitial := s.InitialDeposits[user]
	s.TotalShares = money.Sub(s.TotalShares, plan.SharesWithdrawn)
	if plan.RemainingShares.Sign() == 0 {
		delete(s.UserShares, user)
		delete(s.InitialDeposits, user)
	} else {
		s.UserShares[user] = plan.RemainingShares
		s.InitialDeposits[user] = plan.NewInitialDeposit
	}
	s.TotalBalance = money.Sub(money.Add(s.TotalBalance, plan.NewInitialDeposit), oldInitial)
	if s.TotalShares.Sign() == 0 {
		s.CurrentPool = nil
		s.PositionID = nil
		s.CurrentLiquidity = nil
		s.CurrentLiquidityUpdatedAt = nil
	}
}
