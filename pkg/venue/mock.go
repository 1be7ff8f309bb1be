package venue

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/money"
	"github.com/liquidops/apyvault/pkg/pool"
)

var buildErrorCodeMock = apyerr.BuildErrorCode(apyerr.AreaLibraries, apyerr.DomainVenue, apyerr.ComponentVenueA)

// MockClient is a deterministic, in-memory LiquidityClient for the Test
// environment, mirroring the teacher pack's pattern of swapping every
// network-backed dependency for a scriptable mock rather than hitting a
// live endpoint (original_source's mock/icpswap.rs, mock/kongswap.rs).
type MockClient struct {
	venue pool.Venue

	mu          sync.Mutex
	nextID      int
	positions   map[string]PositionInfo
	tvl         *big.Int
	fixedSplit0 int64 // percent of baseTokenAmount booked as token0
}

var _ LiquidityClient = (*MockClient)(nil)

func NewMockClient(v pool.Venue) *MockClient {
	return &MockClient{
		venue:       v,
		positions:   make(map[string]PositionInfo),
		tvl:         big.NewInt(1_000_000_000000),
		fixedSplit0: 50,
	}
}

func (m *MockClient) Venue() pool.Venue { return m.venue }

func (m *MockClient) AddLiquidityToPool(ctx context.Context, baseTokenAmount *big.Int) (AddResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token0Amount := money.PercentOf(baseTokenAmount, m.fixedSplit0)
	token1Amount := money.Sub(baseTokenAmount, token0Amount)

	m.nextID++
	id := positionIDFor(m.nextID)
	m.positions[id] = PositionInfo{
		PositionID:   id,
		Token0Amount: token0Amount,
		Token1Amount: token1Amount,
		USDAmount0:   token0Amount,
		USDAmount1:   token1Amount,
	}
	m.tvl = money.Add(m.tvl, baseTokenAmount)

	return AddResult{
		Token0Amount:             token0Amount,
		Token1Amount:             token1Amount,
		PositionID:               id,
		BaseTokenEquivalentTotal: baseTokenAmount,
	}, nil
}

func (m *MockClient) WithdrawLiquidityFromPool(ctx context.Context, totalShares, shares *big.Int) (WithdrawResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var amount0, amount1 *big.Int = big.NewInt(0), big.NewInt(0)
	for id, pos := range m.positions {
		withdrawn0 := money.MulDiv(pos.Token0Amount, shares, totalShares)
		withdrawn1 := money.MulDiv(pos.Token1Amount, shares, totalShares)
		amount0 = money.Add(amount0, withdrawn0)
		amount1 = money.Add(amount1, withdrawn1)

		remaining0 := money.Sub(pos.Token0Amount, withdrawn0)
		remaining1 := money.Sub(pos.Token1Amount, withdrawn1)
		if money.IsZero(remaining0) && money.IsZero(remaining1) {
			delete(m.positions, id)
		} else {
			pos.Token0Amount, pos.Token1Amount = remaining0, remaining1
			m.positions[id] = pos
		}
	}
	m.tvl = money.SaturatingSub(m.tvl, money.Add(amount0, amount1))
	return WithdrawResult{Token0Amount: amount0, Token1Amount: amount1}, nil
}

func (m *MockClient) GetPositionByID(ctx context.Context, positionID string) (PositionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[positionID]
	if !ok {
		return PositionInfo{}, apyerr.NotFound(buildErrorCodeMock(apyerr.KindNotFound, 20), "mockclient.GetPositionByID",
			"no such position", map[string]string{"position_id": positionID})
	}
	return pos, nil
}

func (m *MockClient) GetPoolData(ctx context.Context) (PoolData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PoolData{TVL: m.tvl}, nil
}

// Quote/Swap let MockClient double as a router.Swapper in tests that need
// one, at a fixed 1:1 rate.
func (m *MockClient) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	return new(big.Int).Set(amountIn), nil
}

func (m *MockClient) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	return new(big.Int).Set(amountIn), nil
}

func positionIDFor(n int) string {
	const prefix = "mock-position-"
	digits := big.NewInt(int64(n)).String()
	return prefix + digits
}
