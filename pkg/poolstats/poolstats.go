// Package poolstats implements Service B (§4.11): a Pool registry kept
// separate from the Strategy registry so an operator can observe a pool's
// metrics without any strategy investing in it, plus the periodic
// snapshot timer and the get_pool_metrics/get_pools_history queries
// Service A and operators consume. Grounded on
// original_source/src/pool_stats's pool_snapshot_service.rs (timer +
// per-pool snapshot) and pool_yield_service.rs (APY from snapshot
// series), adapted from ic-cdk timers to a robfig/cron schedule.
package poolstats

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/engine"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/rebalance"
	"github.com/liquidops/apyvault/pkg/venue"
	"github.com/liquidops/apyvault/pkg/yieldcalc"
	"github.com/robfig/cron/v3"
)

var buildErrorCode = apyerr.BuildErrorCode(apyerr.AreaServices, apyerr.DomainPoolStats, apyerr.ComponentPoolStatsCore)

const defaultYieldWindow = yieldcalc.Week1

// TrackedPool is one entry in Pool-Stats' own registry: a Pool plus
// whichever position (if any) is currently live against it.
type TrackedPool struct {
	Pool       pool.Pool
	PositionID *string
}

// Snapshot is one periodic read of a tracked pool's position and pool
// data (§4.11), implementing yieldcalc.Snapshot.
type Snapshot struct {
	PoolID       string
	TimestampSec int64
	Token0Amount *big.Int
	Token1Amount *big.Int
	USDAmount0   *big.Int
	USDAmount1   *big.Int
	TVL          *big.Int
}

func (s Snapshot) Timestamp() int64 { return s.TimestampSec }

// PoolHistory is the get_pools_history response shape (§4.11/§6.2): one
// pool's raw snapshots plus their smoothed per-snapshot APY.
type PoolHistory struct {
	PoolID      string
	Snapshots   []Snapshot
	SmoothedAPY []float64
}

// Store persists the pool registry and its snapshot series.
type Store interface {
	ListPools() ([]TrackedPool, error)
	SavePool(tp TrackedPool) error
	DeletePool(poolID string) error
	AppendSnapshot(s Snapshot) error
	Snapshots(poolID string) ([]Snapshot, error)
}

// Service is Pool-Stats: a registry of observed pools, a background
// snapshot timer, and the two read queries Engine/operators use.
type Service struct {
	mu     sync.Mutex
	venues map[pool.Venue]venue.LiquidityClient
	store  Store
	nowFn  func() int64

	cron *cron.Cron
}

func New(venues map[pool.Venue]venue.LiquidityClient, store Store) *Service {
	return &Service{
		venues: venues,
		store:  store,
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// AddPool registers p for observation with no live position yet.
func (s *Service) AddPool(p pool.Pool) error {
	return s.store.SavePool(TrackedPool{Pool: p})
}

// SetPosition records (or clears, with nil) the live position id Pool-
// Stats should snapshot for poolID going forward.
func (s *Service) SetPosition(poolID string, positionID *string) error {
	tracked, err := s.store.ListPools()
	if err != nil {
		return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 1), "poolstats.SetPosition",
			"failed to load tracked pools", nil)
	}
	for _, tp := range tracked {
		if tp.Pool.ID() == poolID {
			tp.PositionID = positionID
			return s.store.SavePool(tp)
		}
	}
	return apyerr.NotFound(buildErrorCode(apyerr.KindNotFound, 1), "poolstats.SetPosition",
		"unknown pool id", map[string]string{"pool_id": poolID})
}

// RemovePool stops observing poolID.
func (s *Service) RemovePool(poolID string) error {
	return s.store.DeletePool(poolID)
}

// Start installs the periodic snapshot timer (§4.11, default 300s) as a
// cron entry, the "per-service timer cell" §5 describes: a running
// instance holds exactly one active schedule until Stop clears it.
func (s *Service) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { s.snapshotAll(ctx) }); err != nil {
		return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 4), "poolstats.Start",
			"failed to install snapshot timer", nil)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop clears the timer cell, waiting for any in-flight snapshot to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// snapshotAll takes one snapshot of every tracked pool with a live
// position, per §4.11's "for each pool with a live position".
func (s *Service) snapshotAll(ctx context.Context) {
	tracked, err := s.store.ListPools()
	if err != nil {
		return
	}
	for _, tp := range tracked {
		if tp.PositionID == nil {
			continue
		}
		_ = s.snapshotOne(ctx, tp)
	}
}

func (s *Service) snapshotOne(ctx context.Context, tp TrackedPool) error {
	lc, ok := s.venues[tp.Pool.Venue]
	if !ok {
		return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 2), "poolstats.snapshotOne",
			"no liquidity client registered for venue", map[string]string{"venue": tp.Pool.Venue.String()})
	}

	pos, err := lc.GetPositionByID(ctx, *tp.PositionID)
	if err != nil {
		return err
	}
	data, err := lc.GetPoolData(ctx)
	if err != nil {
		return err
	}

	return s.store.AppendSnapshot(Snapshot{
		PoolID:       tp.Pool.ID(),
		TimestampSec: s.nowFn(),
		Token0Amount: pos.Token0Amount,
		Token1Amount: pos.Token1Amount,
		USDAmount0:   pos.USDAmount0,
		USDAmount1:   pos.USDAmount1,
		TVL:          data.TVL,
	})
}

func usdTotal(s Snapshot) float64 {
	total := new(big.Int)
	if s.USDAmount0 != nil {
		total.Add(total, s.USDAmount0)
	}
	if s.USDAmount1 != nil {
		total.Add(total, s.USDAmount1)
	}
	f, _ := new(big.Float).SetInt(total).Float64()
	return f
}

func token0Total(s Snapshot) float64 {
	if s.Token0Amount == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(s.Token0Amount).Float64()
	return f
}

func token1Total(s Snapshot) float64 {
	if s.Token1Amount == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(s.Token1Amount).Float64()
	return f
}

// GetPoolMetrics implements §6.2 get_pool_metrics: {apy, tvl} per pool,
// APY computed over the fixed Week1 window (§4.11) as the USD-value APY
// plus the tokens APY. The tokens APY mirrors pool_yield_service.rs's
// calculate_pool_yield: the average of the token0 and token1 APYs when
// both are positive, else whichever one is positive, else 0.
func (s *Service) GetPoolMetrics(ctx context.Context, poolIDs []string) (map[string]engine.PoolMetric, error) {
	out := make(map[string]engine.PoolMetric, len(poolIDs))
	now := s.nowFn()
	for _, id := range poolIDs {
		snaps, err := s.store.Snapshots(id)
		if err != nil {
			continue
		}
		usdAPY := yieldcalc.CalculateForPeriod(snaps, defaultYieldWindow, now, usdTotal)

		var tokensAPY float64
		if len(snaps) >= 2 {
			apy0 := yieldcalc.CalculateForPeriod(snaps, defaultYieldWindow, now, token0Total)
			apy1 := yieldcalc.CalculateForPeriod(snaps, defaultYieldWindow, now, token1Total)
			switch {
			case apy0 > 0 && apy1 > 0:
				tokensAPY = (apy0 + apy1) / 2
			case apy0 > 0:
				tokensAPY = apy0
			case apy1 > 0:
				tokensAPY = apy1
			}
		}

		var tvl *big.Int
		if len(snaps) > 0 {
			tvl = snaps[len(snaps)-1].TVL
		}
		out[id] = engine.PoolMetric{APY: usdAPY + tokensAPY, TVL: tvl}
	}
	return out, nil
}

// GetPoolsHistory implements §6.2 get_pools_history: raw snapshots plus a
// smoothed per-snapshot APY series (§4.10 "Smoothing"), optionally
// restricted to poolIDs and a [from, to] window.
func (s *Service) GetPoolsHistory(ctx context.Context, poolIDs []string, from, to *int64) ([]PoolHistory, error) {
	ids := poolIDs
	if len(ids) == 0 {
		tracked, err := s.store.ListPools()
		if err != nil {
			return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 3), "poolstats.GetPoolsHistory",
				"failed to load tracked pools", nil)
		}
		for _, tp := range tracked {
			ids = append(ids, tp.Pool.ID())
		}
		sort.Strings(ids)
	}

	out := make([]PoolHistory, 0, len(ids))
	for _, id := range ids {
		snaps, err := s.store.Snapshots(id)
		if err != nil {
			continue
		}
		if from != nil || to != nil {
			lo, hi := int64(0), s.nowFn()
			if from != nil {
				lo = *from
			}
			if to != nil {
				hi = *to
			}
			snaps = yieldcalc.FilterByTimeRange(snaps, lo, hi)
		}

		raw := make([]float64, len(snaps))
		for i := 1; i < len(snaps); i++ {
			raw[i] = yieldcalc.Calculate(snaps[i-1:i+1], usdTotal)
		}
		out = append(out, PoolHistory{
			PoolID:      id,
			Snapshots:   snaps,
			SmoothedAPY: yieldcalc.SmoothTrailing5(raw),
		})
	}
	return out, nil
}

// perSnapshotReturns builds the consecutive-pair yield series
// rebalance.PoolScoreInput's *_series fields expect: one sample per
// adjacent snapshot pair, the same granularity GetPoolsHistory smooths.
// original_source's metrics.rs consumes a pre-built series without
// showing its construction site; pairing consecutive snapshots is the
// natural way to get more than one sample (needed for stddev) out of a
// monotonically-appended snapshot store.
func perSnapshotReturns(snaps []Snapshot, extract func(Snapshot) float64) []float64 {
	if len(snaps) < 2 {
		return nil
	}
	out := make([]float64, 0, len(snaps)-1)
	for i := 1; i < len(snaps); i++ {
		out = append(out, yieldcalc.Calculate(snaps[i-1:i+1], extract))
	}
	return out
}

func avgTokenPrice(s Snapshot) float64 {
	amount0, amount1 := token0Total(s), token1Total(s)
	denom := amount0 + amount1
	if denom == 0 {
		return 0
	}
	return usdTotal(s) / denom
}

// GetPoolScoreInputs builds the §4.7.1 raw per-pool series the Engine's
// rebalance scorer consumes. volume_period has no data source in this
// system (no trade-volume telemetry is collected anywhere in the
// pipeline, only position/pool balances) so it is always reported as 0,
// which zeroes capital_efficiency in every score — documented in
// DESIGN.md rather than fabricated.
func (s *Service) GetPoolScoreInputs(ctx context.Context, poolIDs []string) (map[string]rebalance.PoolScoreInput, error) {
	now := s.nowFn()
	out := make(map[string]rebalance.PoolScoreInput, len(poolIDs))
	for _, id := range poolIDs {
		snaps, err := s.store.Snapshots(id)
		if err != nil {
			continue
		}
		var tvl float64
		if len(snaps) > 0 {
			tvl, _ = new(big.Float).SetInt(snaps[len(snaps)-1].TVL).Float64()
		}
		out[id] = rebalance.PoolScoreInput{
			PoolID:              id,
			TVL:                 tvl,
			VolumePeriod:        0,
			USDAPYSeries:        perSnapshotReturns(snaps, usdTotal),
			TokenAPYSeries:      perSnapshotReturns(snaps, func(sn Snapshot) float64 { return token0Total(sn) + token1Total(sn) }),
			USDAPYLongTerm:      yieldcalc.CalculateForPeriod(snaps, yieldcalc.All, now, usdTotal),
			AvgTokenPriceSeries: mapSnapshots(snaps, avgTokenPrice),
		}
	}
	return out, nil
}

func mapSnapshots(snaps []Snapshot, f func(Snapshot) float64) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = f(s)
	}
	return out
}
