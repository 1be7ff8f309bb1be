// Package engine implements Service A (§4.3, §4.5, §4.7–§4.9, §6.1): the
// deposit/withdraw/rebalance surface over the strategy registry. Grounded
// on blackhole.go's single-struct-holds-every-dependency construction
// style (ledger, router, venues, listener all fields on one Engine),
// generalized from one hardcoded pool to many registry-resolved ones.
package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/internal/resilience"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/eventlog"
	"github.com/liquidops/apyvault/pkg/ledger"
	"github.com/liquidops/apyvault/pkg/money"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/rebalance"
	"github.com/liquidops/apyvault/pkg/registry"
	"github.com/liquidops/apyvault/pkg/router"
	"github.com/liquidops/apyvault/pkg/strategy"
	"github.com/liquidops/apyvault/pkg/venue"
)

// defaultBreakerWindow/defaultBreakerThreshold size each venue's circuit
// breaker when Config.BreakerWindow/BreakerThreshold are left zero.
const (
	defaultBreakerWindow    = 5 * time.Minute
	defaultBreakerThreshold = 5
)

var buildErrorCode = apyerr.BuildErrorCode(apyerr.AreaServices, apyerr.DomainEngine, apyerr.ComponentEngineCore)

// PoolMetricsSource is the subset of the Pool-Stats API the Engine
// consumes (§6.2 get_pool_metrics), kept narrow to avoid a dependency
// cycle between the engine and poolstats packages.
type PoolMetricsSource interface {
	GetPoolMetrics(ctx context.Context, poolIDs []string) (map[string]PoolMetric, error)
}

// PoolMetric is the {apy, tvl} pair Pool-Stats reports per pool.
type PoolMetric struct {
	APY float64
	TVL *big.Int
}

// PoolScoreSource supplies the raw per-pool series the §4.7 scorer needs
// (Pool-Stats already retains this for get_pools_history); kept as its
// own interface, narrower than PoolMetricsSource, for the same
// cycle-avoidance reason.
type PoolScoreSource interface {
	GetPoolScoreInputs(ctx context.Context, poolIDs []string) (map[string]rebalance.PoolScoreInput, error)
}

// Engine owns the strategy registry and every dependency its operations
// need: a venue per pool.Venue, the swap router, the ledger, and the
// event log.
type Engine struct {
	registry   *registry.Registry
	venues     map[pool.Venue]venue.LiquidityClient
	swapRouter *router.Router
	ledger     ledger.Ledger
	events     eventlog.Store
	poolStats  PoolMetricsSource
	poolScores PoolScoreSource
	usdtToken  common.Address
	breakers   map[pool.Venue]*resilience.CircuitBreaker
}

type Config struct {
	Registry         *registry.Registry
	Venues           map[pool.Venue]venue.LiquidityClient
	SwapRouter       *router.Router
	Ledger           ledger.Ledger
	Events           eventlog.Store
	PoolStats        PoolMetricsSource
	PoolScores       PoolScoreSource
	USDTToken        common.Address
	BreakerWindow    time.Duration
	BreakerThreshold int
}

func New(cfg Config) *Engine {
	window := cfg.BreakerWindow
	if window <= 0 {
		window = defaultBreakerWindow
	}
	threshold := cfg.BreakerThreshold
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	breakers := make(map[pool.Venue]*resilience.CircuitBreaker, len(cfg.Venues))
	for v := range cfg.Venues {
		breakers[v] = resilience.New(window, threshold)
	}
	return &Engine{
		registry:   cfg.Registry,
		venues:     cfg.Venues,
		swapRouter: cfg.SwapRouter,
		ledger:     cfg.Ledger,
		events:     cfg.Events,
		poolStats:  cfg.PoolStats,
		poolScores: cfg.PoolScores,
		usdtToken:  cfg.USDTToken,
		breakers:   breakers,
	}
}

// venueFor resolves the liquidity client for v, refusing the call outright
// if that venue's circuit breaker has tripped (§ Supplemented Feature 2:
// fail-safe halt rather than hammering a venue already in error).
func (e *Engine) venueFor(v pool.Venue) (venue.LiquidityClient, error) {
	lc, ok := e.venues[v]
	if !ok {
		return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 1), "engine.venueFor",
			"no liquidity client registered for venue", map[string]string{"venue": v.String()})
	}
	if cb, ok := e.breakers[v]; ok && cb.Tripped() {
		return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 6), "engine.venueFor",
			"venue circuit breaker is open", map[string]string{"venue": v.String()})
	}
	return lc, nil
}

// recordVenueResult feeds a venue call's outcome into its circuit breaker:
// a nil err resets the breaker's history, a non-nil err records it.
func (e *Engine) recordVenueResult(v pool.Venue, err error) {
	cb, ok := e.breakers[v]
	if !ok {
		return
	}
	if err == nil {
		cb.Reset()
		return
	}
	cb.RecordError(false)
}

func (e *Engine) emit(ctx context.Context, evt eventlog.Event, strategyID uint64, user, correlationID string, fields map[string]string) {
	sid := strategyID
	_ = e.events.Append(ctx, eventlog.Record{
		CorrelationID: correlationID,
		Event:         evt,
		User:          user,
		StrategyID:    &sid,
		Fields:        fields,
	})
}

// Deposit implements §4.3's 7-step deposit flow.
func (e *Engine) Deposit(ctx context.Context, sctx strategy.Context, strategyID uint64, ledgerID common.Address, amount *big.Int) (*big.Int, error) {
	catalog, state, err := e.registry.Lookup(strategyID)
	if err != nil {
		return nil, err
	}
	if !money.IsPositive(amount) {
		return nil, apyerr.Validation(buildErrorCode(apyerr.KindValidation, 1), "engine.Deposit", "amount must be positive", nil)
	}
	if ledgerID != catalog.BaseToken {
		return nil, apyerr.Validation(buildErrorCode(apyerr.KindValidation, 2), "engine.Deposit",
			"ledger_id must equal strategy base_token", nil)
	}
	if !state.Enabled {
		return nil, apyerr.BusinessLogic(buildErrorCode(apyerr.KindBusinessLogic, 1), "engine.Deposit", "strategy is disabled", nil)
	}

	e.emit(ctx, eventlog.StrategyDepositStarted, strategyID, sctx.User, sctx.CorrelationID, nil)

	// Step 1: pull funds. Fatal, no state change, on failure.
	if _, err := e.ledger.TransferFrom(ctx, ledgerID, common.HexToAddress(sctx.User), amount); err != nil {
		e.emit(ctx, eventlog.StrategyDepositFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "transfer_from"})
		return nil, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 1), "engine.Deposit",
			"failed to pull funds from caller", nil)
	}

	// Step 2: choose target pool if none is open yet.
	targetPool := state.CurrentPool
	if targetPool == nil {
		chosen, err := e.chooseTargetPool(ctx, catalog.CandidatePools)
		if err != nil {
			e.emit(ctx, eventlog.StrategyDepositFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "choose_pool"})
			return nil, err
		}
		targetPool = &chosen
	}

	lc, err := e.venueFor(targetPool.Venue)
	if err != nil {
		e.emit(ctx, eventlog.StrategyDepositFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "venue_lookup"})
		return nil, err
	}

	// Step 3-4: add liquidity, venue-specific balancing internal to lc.
	result, err := lc.AddLiquidityToPool(ctx, amount)
	e.recordVenueResult(targetPool.Venue, err)
	if err != nil {
		e.emit(ctx, eventlog.StrategyDepositFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "add_liquidity"})
		return nil, err
	}

	// Step 5: update state inside the registry's lock so share math reads
	// (total_balance, total_shares) at the committing instant (§5).
	var sharesOut *big.Int
	err = e.registry.WithLock(strategyID, func(_ strategy.Catalog, s *strategy.State) error {
		sharesOut = strategy.DepositShares(result.BaseTokenEquivalentTotal, s.TotalBalance, s.TotalShares)
		s.ApplyDeposit(sctx.User, result.BaseTokenEquivalentTotal, sharesOut)
		s.CurrentPool = targetPool
		handle := strategy.PositionHandle(result.PositionID)
		s.PositionID = &handle
		return nil
	})
	if err != nil {
		e.emit(ctx, eventlog.StrategyDepositFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "commit"})
		return nil, err
	}

	e.emit(ctx, eventlog.StrategyDepositCompleted, strategyID, sctx.User, sctx.CorrelationID, map[string]string{
		"shares_out": sharesOut.String(),
	})

	go e.refreshCurrentLiquidity(context.Background(), strategyID)

	return sharesOut, nil
}

// chooseTargetPool implements §4.3 step 2's selection: the candidate with
// the highest Pool-Stats PoolMetric.APY, which is that pool's USD APY plus
// its tokens APY (the tokens APY alone is not compared), falling back to
// the first candidate deterministically when Pool-Stats is unreachable.
func (e *Engine) chooseTargetPool(ctx context.Context, candidates []pool.Pool) (pool.Pool, error) {
	if len(candidates) == 0 {
		return pool.Pool{}, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 2), "engine.chooseTargetPool",
			"strategy has no candidate pools", nil)
	}
	if e.poolStats == nil {
		return candidates[0], nil
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID()
	}
	metrics, err := e.poolStats.GetPoolMetrics(ctx, ids)
	if err != nil {
		return candidates[0], nil
	}
	best := candidates[0]
	bestAPY := -1.0
	for _, c := range candidates {
		m, ok := metrics[c.ID()]
		if !ok {
			continue
		}
		if m.APY > bestAPY {
			bestAPY = m.APY
			best = c
		}
	}
	return best, nil
}

// Withdraw implements §4.5's withdraw flow.
func (e *Engine) Withdraw(ctx context.Context, sctx strategy.Context, strategyID uint64, ledgerID common.Address, percentage int64) (*big.Int, error) {
	catalog, state, err := e.registry.Lookup(strategyID)
	if err != nil {
		return nil, err
	}
	if percentage < 1 || percentage > 100 {
		return nil, apyerr.Validation(buildErrorCode(apyerr.KindValidation, 3), "engine.Withdraw", "percentage must be in [1,100]", nil)
	}
	userShares, ok := state.UserShares[sctx.User]
	if !ok || userShares.Sign() <= 0 {
		return nil, apyerr.Validation(buildErrorCode(apyerr.KindValidation, 4), "engine.Withdraw", "caller holds no shares", nil)
	}
	if state.CurrentPool == nil {
		return nil, apyerr.BusinessLogic(buildErrorCode(apyerr.KindBusinessLogic, 2), "engine.Withdraw", "strategy has no open position", nil)
	}
	if ledgerID != catalog.BaseToken {
		return nil, apyerr.Validation(buildErrorCode(apyerr.KindValidation, 5), "engine.Withdraw",
			"ledger_id must equal strategy base_token", nil)
	}

	e.emit(ctx, eventlog.StrategyWithdrawStarted, strategyID, sctx.User, sctx.CorrelationID, nil)

	plan := strategy.PlanWithdraw(userShares, state.InitialDeposits[sctx.User], percentage)
	if !money.IsPositive(plan.SharesWithdrawn) {
		e.emit(ctx, eventlog.StrategyWithdrawFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "plan"})
		return nil, apyerr.Validation(buildErrorCode(apyerr.KindValidation, 6), "engine.Withdraw", "computed zero shares to withdraw", nil)
	}

	lc, err := e.venueFor(state.CurrentPool.Venue)
	if err != nil {
		e.emit(ctx, eventlog.StrategyWithdrawFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "venue_lookup"})
		return nil, err
	}

	result, err := lc.WithdrawLiquidityFromPool(ctx, state.TotalShares, plan.SharesWithdrawn)
	e.recordVenueResult(state.CurrentPool.Venue, err)
	if err != nil {
		e.emit(ctx, eventlog.StrategyWithdrawFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "withdraw_liquidity"})
		return nil, err
	}

	// Step 3: convert token1 -> base_token, reserving 2x transfer fee;
	// swap failure here is non-fatal per §4.5's failure semantics.
	payout := result.Token0Amount
	token1ToSwap := result.Token1Amount
	if money.IsPositive(token1ToSwap) {
		fee, feeErr := e.ledger.TransferFee(ctx, state.CurrentPool.Token1)
		reserve := money.Add(fee, fee)
		residual := money.SaturatingSub(token1ToSwap, reserve)
		if feeErr == nil && money.IsPositive(residual) {
			swapOut, swapErr := e.swapRouter.SwapOptimal(ctx, state.CurrentPool.Token1, catalog.BaseToken, residual)
			if swapErr == nil {
				payout = money.Add(payout, swapOut)
			}
		}
	}

	// Step 4: pay out.
	paid, err := e.ledger.Transfer(ctx, catalog.BaseToken, common.HexToAddress(sctx.User), payout)
	if err != nil {
		e.emit(ctx, eventlog.StrategyWithdrawFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "transfer"})
		return nil, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 2), "engine.Withdraw",
			"failed to transfer payout to caller", nil)
	}

	// Step 5: commit share/balance bookkeeping.
	err = e.registry.WithLock(strategyID, func(_ strategy.Catalog, s *strategy.State) error {
		s.ApplyWithdraw(sctx.User, plan)
		return nil
	})
	if err != nil {
		e.emit(ctx, eventlog.StrategyWithdrawFailed, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"step": "commit"})
		return nil, err
	}

	e.emit(ctx, eventlog.StrategyWithdrawCompleted, strategyID, sctx.User, sctx.CorrelationID, map[string]string{"payout": paid.String()})
	go e.refreshCurrentLiquidity(context.Background(), strategyID)
	return paid, nil
}

// EventRecords returns a page of event records matching search, delegating
// to the event log store (§6.1 get_event_records).
func (e *Engine) EventRecords(ctx context.Context, page, pageSize int, descending bool, search string) ([]eventlog.Record, error) {
	return e.events.Page(ctx, page, pageSize, descending, search)
}

// UserPositions returns the catalog entries of every strategy the user
// holds shares in (§6.1 user_positions).
func (e *Engine) UserPositions(user string) []strategy.Catalog {
	return e.registry.ListForUser(user)
}

// GetStrategies returns the full strategy catalog (§6.1 get_strategies).
func (e *Engine) GetStrategies() []strategy.Catalog {
	return e.registry.List()
}

// SetEnabled toggles a strategy's enabled flag (§6.1 set_enabled).
func (e *Engine) SetEnabled(strategyID uint64, enabled bool) error {
	return e.registry.WithLock(strategyID, func(_ strategy.Catalog, s *strategy.State) error {
		s.Enabled = enabled
		return nil
	})
}

// refreshCurrentLiquidity implements §4.9's background mark: read the live
// position's (token0, token1) amounts, quote the non-base side into the
// base token via the swap router, and persist the sum as current_liquidity.
// Fire-and-forget: a failed quote or lookup just skips this refresh, and
// the next deposit, withdraw or completed rebalance refreshes again. The
// Engine runs no periodic refresh timer.
func (e *Engine) refreshCurrentLiquidity(ctx context.Context, strategyID uint64) {
	catalog, state, err := e.registry.Lookup(strategyID)
	if err != nil || state.CurrentPool == nil || state.PositionID == nil {
		return
	}
	lc, err := e.venueFor(state.CurrentPool.Venue)
	if err != nil {
		return
	}
	pos, err := lc.GetPositionByID(ctx, string(*state.PositionID))
	e.recordVenueResult(state.CurrentPool.Venue, err)
	if err != nil {
		return
	}

	baseAmount, otherToken, otherAmount := pos.Token0Amount, state.CurrentPool.Token1, pos.Token1Amount
	if catalog.BaseToken == state.CurrentPool.Token1 {
		baseAmount, otherToken, otherAmount = pos.Token1Amount, state.CurrentPool.Token0, pos.Token0Amount
	}

	quoted := big.NewInt(0)
	if money.IsPositive(otherAmount) {
		out, qerr := e.swapRouter.QuoteOptimal(ctx, otherToken, catalog.BaseToken, otherAmount)
		if qerr != nil {
			return
		}
		quoted = out.AmountOut
	}
	current := money.Add(baseAmount, quoted)

	_ = e.registry.WithLock(strategyID, func(_ strategy.Catalog, s *strategy.State) error {
		s.CurrentLiquidity = current
		ts := uint64(time.Now().Unix())
		s.CurrentLiquidityUpdatedAt = int64Ptr(int64(ts))
		return nil
	})
}

func int64Ptr(v int64) *int64 { return &v }

// currentLiquidityUSD quotes a strategy's current_liquidity (already in
// base-token subunits) into USDT, per §4.9's second paragraph.
func (e *Engine) currentLiquidityUSD(ctx context.Context, catalog strategy.Catalog, state *strategy.State) (float64, error) {
	if state.CurrentLiquidity == nil || !money.IsPositive(state.CurrentLiquidity) {
		return 0, nil
	}
	q, err := e.swapRouter.QuoteOptimal(ctx, catalog.BaseToken, e.usdtToken, state.CurrentLiquidity)
	if err != nil {
		return 0, err
	}
	f := new(big.Float).SetInt(q.AmountOut)
	usd, _ := f.Float64()
	return usd, nil
}

// Rebalance implements §4.8's Engine-side rebalance flow.
func (e *Engine) Rebalance(ctx context.Context, strategyID uint64, correlationID string) (bool, error) {
	catalog, state, err := e.registry.Lookup(strategyID)
	if err != nil {
		return false, err
	}
	if state.CurrentPool == nil {
		return false, nil
	}
	if e.poolStats == nil || e.poolScores == nil {
		return false, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 3), "engine.Rebalance",
			"pool-stats not configured", nil)
	}

	e.emit(ctx, eventlog.StrategyRebalanceStarted, strategyID, "", correlationID, nil)

	positionValueUSD, err := e.currentLiquidityUSD(ctx, catalog, state)
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "position_value"})
		return false, err
	}

	ids := make([]string, len(catalog.CandidatePools))
	for i, p := range catalog.CandidatePools {
		ids[i] = p.ID()
	}
	inputs, err := e.poolScores.GetPoolScoreInputs(ctx, ids)
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "pool_scores"})
		return false, err
	}

	params := rebalance.DefaultParamsForProfile(catalog.RiskProfile)
	var currentScore rebalance.ScoreOutput
	var candidateScores []rebalance.ScoreOutput
	for _, p := range catalog.CandidatePools {
		in, ok := inputs[p.ID()]
		if !ok {
			continue
		}
		score := rebalance.Score(in, params, positionValueUSD)
		if p.EquivalentTo(*state.CurrentPool) {
			currentScore = score
			continue
		}
		candidateScores = append(candidateScores, score)
	}

	decision := rebalance.Decide(uint64(time.Now().Unix()), state.LastRebalanceAt, currentScore, candidateScores,
		params, positionValueUSD, currentScore.Components.SmaAPYUSD)

	if !decision.ShouldMove || decision.TargetPoolID == nil || *decision.TargetPoolID == state.CurrentPool.ID() {
		e.emit(ctx, eventlog.StrategyRebalanceCompleted, strategyID, "", correlationID, map[string]string{"moved": "false"})
		return false, nil
	}

	var targetPool pool.Pool
	found := false
	for _, p := range catalog.CandidatePools {
		if p.ID() == *decision.TargetPoolID {
			targetPool, found = p, true
			break
		}
	}
	if !found {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "target_lookup"})
		return false, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 4), "engine.Rebalance",
			"decision target pool is not a candidate", nil)
	}

	currentLC, err := e.venueFor(state.CurrentPool.Venue)
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "venue_lookup"})
		return false, err
	}

	// Step 6: withdraw 100% from the current pool, then move token1 -> base
	// token exactly as §4.5.3 does for a user withdrawal.
	withdrawn, err := currentLC.WithdrawLiquidityFromPool(ctx, state.TotalShares, state.TotalShares)
	e.recordVenueResult(state.CurrentPool.Venue, err)
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "withdraw"})
		return false, err
	}
	baseAmount := withdrawn.Token0Amount
	if money.IsPositive(withdrawn.Token1Amount) {
		fee, feeErr := e.ledger.TransferFee(ctx, state.CurrentPool.Token1)
		reserve := money.Add(fee, fee)
		residual := money.SaturatingSub(withdrawn.Token1Amount, reserve)
		if feeErr == nil && money.IsPositive(residual) {
			if out, swapErr := e.swapRouter.SwapOptimal(ctx, state.CurrentPool.Token1, catalog.BaseToken, residual); swapErr == nil {
				baseAmount = money.Add(baseAmount, out)
			}
		}
	}

	// Cash-holding intermediate state: both current_pool and position_id
	// cleared together, restored together at step 8 or left cleared on
	// failure per §4.8's failure semantics.
	err = e.registry.WithLock(strategyID, func(_ strategy.Catalog, s *strategy.State) error {
		s.CurrentPool = nil
		s.PositionID = nil
		return nil
	})
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "clear_position"})
		return false, err
	}

	targetLC, err := e.venueFor(targetPool.Venue)
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "target_venue_lookup"})
		return false, err
	}
	result, err := targetLC.AddLiquidityToPool(ctx, baseAmount)
	e.recordVenueResult(targetPool.Venue, err)
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "add_liquidity"})
		return false, err
	}

	err = e.registry.WithLock(strategyID, func(_ strategy.Catalog, s *strategy.State) error {
		s.CurrentPool = &targetPool
		handle := strategy.PositionHandle(result.PositionID)
		s.PositionID = &handle
		now := uint64(time.Now().Unix())
		s.LastRebalanceAt = &now
		return nil
	})
	if err != nil {
		e.emit(ctx, eventlog.StrategyRebalanceFailed, strategyID, "", correlationID, map[string]string{"step": "commit"})
		return false, err
	}

	e.emit(ctx, eventlog.StrategyRebalanceCompleted, strategyID, "", correlationID, map[string]string{"moved": "true"})
	go e.refreshCurrentLiquidity(context.Background(), strategyID)
	return true, nil
}

// ProbeDeposit implements §4.12 step 2's minimal-safe-size probe deposit:
// Strategy-History uses this to bootstrap an APY baseline for a strategy
// with no real depositors yet. Sizing follows the heuristic verbatim:
// (2*fee + 2*fee) * 100.
func (e *Engine) ProbeDeposit(ctx context.Context, strategyID uint64, probeUser string) (*big.Int, error) {
	catalog, _, err := e.registry.Lookup(strategyID)
	if err != nil {
		return nil, err
	}
	fee, err := e.ledger.TransferFee(ctx, catalog.BaseToken)
	if err != nil {
		return nil, err
	}
	probeAmount := money.MulDiv(fee, big.NewInt(400), big.NewInt(1))
	sctx := strategy.Context{User: probeUser, CorrelationID: "probe-deposit"}
	return e.Deposit(ctx, sctx, strategyID, catalog.BaseToken, probeAmount)
}

// StateSnapshot is the slice of a strategy's live state Strategy-History
// needs to build a StrategySnapshot (§4.12 step 3), without exposing the
// full registry-owned strategy.State to callers outside the Engine.
type StateSnapshot struct {
	TotalBalance     *big.Int
	TotalShares      *big.Int
	CurrentLiquidity *big.Int
	UsersCount       int
	ProbeShares      *big.Int
	Initialized      bool
}

// Snapshot returns probeUser's current view of strategyID for Strategy-
// History's periodic snapshotting.
func (e *Engine) Snapshot(strategyID uint64, probeUser string) (StateSnapshot, error) {
	_, state, err := e.registry.Lookup(strategyID)
	if err != nil {
		return StateSnapshot{}, err
	}
	probeShares := state.UserShares[probeUser]
	return StateSnapshot{
		TotalBalance:     state.TotalBalance,
		TotalShares:      state.TotalShares,
		CurrentLiquidity: state.CurrentLiquidity,
		UsersCount:       len(state.UserShares),
		ProbeShares:      probeShares,
		Initialized:      probeShares != nil && probeShares.Sign() > 0,
	}, nil
}
