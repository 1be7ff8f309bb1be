package venue

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/contractclient"
	"github.com/liquidops/apyvault/pkg/ledger"
	"github.com/liquidops/apyvault/pkg/money"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/txlistener"
	"github.com/liquidops/apyvault/pkg/util"
)

var buildErrorCodeB = apyerr.BuildErrorCode(apyerr.AreaLibraries, apyerr.DomainVenue, apyerr.ComponentVenueB)

// tickSpacing/rangeWidth/slippagePoints mirror the constants blackhole.go's
// Mint hardcodes for the WAVAX/USDC pool; generalized here to any pair.
const (
	tickSpacing    = 200
	rangeWidth     = 10
	slippagePoints = 50 // out of 1000, i.e. 5%
	pointsDenom    = 1000
)

// VenueB adapts the concentrated-liquidity venue (§4.4.2). Unlike VenueA
// it needs a two-phase construction: NewVenueB() builds an instance with
// no resolved pool handle, then WithPool() resolves one (or errors
// NotFound if none exists), grounded on blackhole.go's Mint/Stake/Unstake
// flow generalized from hardcoded WAVAX/USDC addresses.
type VenueB struct {
	p            *pool.Pool
	poolClient   contractclient.ContractClient
	nftManager   contractclient.ContractClient
	gauge        contractclient.ContractClient
	tokenDecimals map[common.Address]int
	ledger       ledger.Ledger
	myAddr       common.Address
	privateKey   *ecdsa.PrivateKey
	tl           txlistener.TxListener

	// positionID is the open position's NFT token id, nil until
	// AddLiquidityToPool succeeds or WithdrawLiquidityFromPool fully exits.
	positionID *big.Int
}

var _ LiquidityClient = (*VenueB)(nil)

type VenueBConfig struct {
	PoolClient    contractclient.ContractClient
	NFTManager    contractclient.ContractClient
	Gauge         contractclient.ContractClient
	TokenDecimals map[common.Address]int
	Ledger        ledger.Ledger
	MyAddr        common.Address
	PrivateKey    *ecdsa.PrivateKey
	TxListener    txlistener.TxListener
}

// NewVenueB builds a VenueB client with no resolved pool handle; callers
// must call WithPool before using it.
func NewVenueB(cfg VenueBConfig) *VenueB {
	return &VenueB{
		poolClient:    cfg.PoolClient,
		nftManager:    cfg.NFTManager,
		gauge:         cfg.Gauge,
		tokenDecimals: cfg.TokenDecimals,
		ledger:        cfg.Ledger,
		myAddr:        cfg.MyAddr,
		privateKey:    cfg.PrivateKey,
		tl:            cfg.TxListener,
	}
}

// WithPool resolves the venue pool handle for (token0, token1), erroring
// NotFound if the pool does not exist at this venue.
func (v *VenueB) WithPool(ctx context.Context, token0, token1 common.Address) (*VenueB, error) {
	out, err := v.poolClient.Call(&v.myAddr, "getPool", token0, token1)
	if err != nil || len(out) == 0 {
		return nil, apyerr.NotFound(buildErrorCodeB(apyerr.KindNotFound, 1), "venueb.WithPool",
			"no pool exists for token pair at this venue", map[string]string{"token0": token0.Hex(), "token1": token1.Hex()})
	}
	p, ok := pool.New(token0, token1, pool.VenueB)
	if !ok {
		return nil, apyerr.Validation(buildErrorCodeB(apyerr.KindValidation, 1), "venueb.WithPool",
			"token0 and token1 must differ", nil)
	}
	v.p = &p
	return v, nil
}

func (v *VenueB) Venue() pool.Venue { return pool.VenueB }

func (v *VenueB) requirePool() error {
	if v.p == nil {
		return apyerr.Infrastructure(buildErrorCodeB(apyerr.KindInfrastructure, 1), "venueb",
			"WithPool must be called before use", nil)
	}
	return nil
}

// ammState is the venue's current tick/sqrt-price read, mirroring
// blackhole.go's AMMState.
type ammState struct {
	tick         int32
	sqrtPriceX96 *big.Int
}

func (v *VenueB) getAMMState(ctx context.Context) (ammState, error) {
	out, err := v.poolClient.Call(&v.myAddr, "globalState", v.p.Token0, v.p.Token1)
	if err != nil || len(out) != 2 {
		return ammState{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 1), "venueb.getAMMState",
			"failed to read pool state", nil)
	}
	sqrtPriceX96, _ := out[0].(*big.Int)
	tickBig, _ := out[1].(*big.Int)
	if sqrtPriceX96 == nil || tickBig == nil {
		return ammState{}, apyerr.Infrastructure(buildErrorCodeB(apyerr.KindInfrastructure, 2), "venueb.getAMMState",
			"unexpected globalState result shape", nil)
	}
	return ammState{tick: int32(tickBig.Int64()), sqrtPriceX96: sqrtPriceX96}, nil
}

// AddLiquidityToPool mints a new concentrated-liquidity position around
// the current tick, grounded on blackhole.go's Mint: tick-bound calc,
// optimal split via ComputeAmounts, dual approval, mint, NFT-ID
// extraction, then an immediate Stake into the venue's gauge.
func (v *VenueB) AddLiquidityToPool(ctx context.Context, baseTokenAmount *big.Int) (AddResult, error) {
	if err := v.requirePool(); err != nil {
		return AddResult{}, err
	}

	state, err := v.getAMMState(ctx)
	if err != nil {
		return AddResult{}, err
	}

	tickLower, tickUpper, err := util.CalculateTickBounds(state.tick, rangeWidth, tickSpacing)
	if err != nil {
		return AddResult{}, apyerr.BusinessLogic(buildErrorCodeB(apyerr.KindBusinessLogic, 1), "venueb.AddLiquidityToPool",
			"failed to compute tick bounds", nil)
	}

	// tokens_fee reservation (§4.4.2): hold back one transfer fee per side
	// before committing to the mint, so the post-swap balance can always
	// cover gas.
	fee0, err := v.ledger.TransferFee(ctx, v.p.Token0)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 2), "venueb.AddLiquidityToPool",
			"failed to fetch token0 transfer fee", nil)
	}
	fee1, err := v.ledger.TransferFee(ctx, v.p.Token1)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 3), "venueb.AddLiquidityToPool",
			"failed to fetch token1 transfer fee", nil)
	}

	amount0Max := money.SaturatingSub(baseTokenAmount, fee0)
	amount1Max := money.SaturatingSub(baseTokenAmount, fee1)

	amount0Desired, amount1Desired, _ := util.ComputeAmounts(
		state.sqrtPriceX96, int(state.tick), int(tickLower), int(tickUpper), amount0Max, amount1Max)

	if money.IsZero(amount0Desired) && money.IsZero(amount1Desired) {
		return AddResult{}, apyerr.BusinessLogic(buildErrorCodeB(apyerr.KindBusinessLogic, 2), "venueb.AddLiquidityToPool",
			"computed mint amounts are zero", nil)
	}

	slippagePct := slippagePoints * 100 / pointsDenom
	amount0Min := util.CalculateMinAmount(amount0Desired, slippagePct)
	amount1Min := util.CalculateMinAmount(amount1Desired, slippagePct)

	if err := v.ledger.Approve(ctx, v.p.Token0, v.nftManager.ContractAddress(), amount0Desired); err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 4), "venueb.AddLiquidityToPool",
			"failed to approve token0", nil)
	}
	if err := v.ledger.Approve(ctx, v.p.Token1, v.nftManager.ContractAddress(), amount1Desired); err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 5), "venueb.AddLiquidityToPool",
			"failed to approve token1", nil)
	}

	mintHash, err := v.nftManager.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey,
		"mint", v.p.Token0, v.p.Token1, tickLower, tickUpper, amount0Desired, amount1Desired, amount0Min, amount1Min, v.myAddr)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 6), "venueb.AddLiquidityToPool",
			"failed to submit mint", nil)
	}
	receipt, err := v.tl.WaitForTransaction(mintHash)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 7), "venueb.AddLiquidityToPool",
			"mint transaction failed", nil)
	}
	nftTokenID := mintNftTokenID(v.nftManager, receipt)
	v.positionID = nftTokenID

	if err := v.stake(ctx, nftTokenID); err != nil {
		return AddResult{}, err
	}

	baseEquivalent := money.Add(amount0Desired, amount1Desired)
	return AddResult{
		Token0Amount:             amount0Desired,
		Token1Amount:             amount1Desired,
		PositionID:               nftTokenID.String(),
		BaseTokenEquivalentTotal: baseEquivalent,
	}, nil
}

// stake deposits a freshly minted position NFT into the venue's gauge,
// grounded on blackhole.go's Stake.
func (v *VenueB) stake(ctx context.Context, nftTokenID *big.Int) error {
	if err := v.ledger.Approve(ctx, v.gauge.ContractAddress(), v.nftManager.ContractAddress(), nftTokenID); err != nil {
		return apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 8), "venueb.stake",
			"failed to approve NFT transfer to gauge", nil)
	}
	hash, err := v.gauge.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey, "deposit", nftTokenID)
	if err != nil {
		return apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 9), "venueb.stake",
			"failed to submit gauge deposit", nil)
	}
	if _, err := v.tl.WaitForTransaction(hash); err != nil {
		return apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 10), "venueb.stake",
			"gauge deposit transaction failed", nil)
	}
	return nil
}

// unstake exits farming and claims any outstanding reward, grounded on
// blackhole.go's Unstake multicall of exitFarming+claimReward.
func (v *VenueB) unstake(ctx context.Context, nftTokenID *big.Int) error {
	hash, err := v.gauge.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey, "exitFarming", nftTokenID)
	if err != nil {
		return apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 11), "venueb.unstake",
			"failed to submit exitFarming", nil)
	}
	if _, err := v.tl.WaitForTransaction(hash); err != nil {
		return apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 12), "venueb.unstake",
			"exitFarming transaction failed", nil)
	}
	return nil
}

// WithdrawLiquidityFromPool implements the symmetric decrease_liquidity ->
// claim -> withdraw flow of §4.4.2.
func (v *VenueB) WithdrawLiquidityFromPool(ctx context.Context, totalShares, shares *big.Int) (WithdrawResult, error) {
	if err := v.requirePool(); err != nil {
		return WithdrawResult{}, err
	}
	if v.positionID == nil {
		return WithdrawResult{}, apyerr.BusinessLogic(buildErrorCodeB(apyerr.KindBusinessLogic, 3), "venueb.WithdrawLiquidityFromPool",
			"no open position to withdraw from", nil)
	}

	if err := v.unstake(ctx, v.positionID); err != nil {
		return WithdrawResult{}, err
	}

	out, err := v.nftManager.Call(&v.myAddr, "positions", v.positionID)
	if err != nil || len(out) == 0 {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 13), "venueb.WithdrawLiquidityFromPool",
			"failed to read position liquidity", nil)
	}
	liquidity, _ := out[0].(*big.Int)
	if liquidity == nil {
		liquidity = big.NewInt(0)
	}
	liquidityToRemove := money.MulDiv(liquidity, shares, totalShares)

	decreaseHash, err := v.nftManager.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey,
		"decreaseLiquidity", v.positionID, liquidityToRemove)
	if err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 14), "venueb.WithdrawLiquidityFromPool",
			"failed to submit decreaseLiquidity", nil)
	}
	decreaseReceipt, err := v.tl.WaitForTransaction(decreaseHash)
	if err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 15), "venueb.WithdrawLiquidityFromPool",
			"decreaseLiquidity transaction failed", nil)
	}

	claimHash, err := v.nftManager.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey,
		"collect", v.positionID, v.myAddr)
	if err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 16), "venueb.WithdrawLiquidityFromPool",
			"failed to submit collect", nil)
	}
	if _, err := v.tl.WaitForTransaction(claimHash); err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 17), "venueb.WithdrawLiquidityFromPool",
			"collect transaction failed", nil)
	}

	amount0, amount1 := parseDecreaseLiquidityAmounts(v.nftManager, decreaseReceipt)
	if liquidityToRemove.Cmp(liquidity) >= 0 {
		v.positionID = nil
	}
	return WithdrawResult{Token0Amount: amount0, Token1Amount: amount1}, nil
}

// GetPositionByID reports the live token amounts and a USD mark for the
// position (position id is the NFT token id as a decimal string).
func (v *VenueB) GetPositionByID(ctx context.Context, positionID string) (PositionInfo, error) {
	if err := v.requirePool(); err != nil {
		return PositionInfo{}, err
	}
	tokenID, ok := new(big.Int).SetString(positionID, 10)
	if !ok {
		return PositionInfo{}, apyerr.Validation(buildErrorCodeB(apyerr.KindValidation, 2), "venueb.GetPositionByID",
			"positionID is not a valid token id", nil)
	}
	out, err := v.nftManager.Call(&v.myAddr, "positions", tokenID)
	if err != nil || len(out) < 4 {
		return PositionInfo{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 18), "venueb.GetPositionByID",
			"failed to read position", nil)
	}
	liquidity, _ := out[0].(*big.Int)
	tickLower, _ := out[1].(*big.Int)
	tickUpper, _ := out[2].(*big.Int)
	state, err := v.getAMMState(ctx)
	if err != nil {
		return PositionInfo{}, err
	}
	amount0, amount1, _ := util.CalculateTokenAmountsFromLiquidity(liquidity, state.sqrtPriceX96, int32(tickLower.Int64()), int32(tickUpper.Int64()))

	usdOut, err := v.poolClient.Call(&v.myAddr, "getPositionAmounts", v.p.Token0, v.p.Token1, tokenID)
	var usd0, usd1 *big.Int
	if err == nil {
		usd0, usd1, _, _ = positionAmounts(usdOut)
	} else {
		usd0, usd1 = big.NewInt(0), big.NewInt(0)
	}

	return PositionInfo{
		PositionID:   positionID,
		Token0Amount: amount0,
		Token1Amount: amount1,
		USDAmount0:   usd0,
		USDAmount1:   usd1,
	}, nil
}

// GetPoolData reads the pool's own TVL figure.
func (v *VenueB) GetPoolData(ctx context.Context) (PoolData, error) {
	if err := v.requirePool(); err != nil {
		return PoolData{}, err
	}
	out, err := v.poolClient.Call(&v.myAddr, "getTVL", v.p.Token0, v.p.Token1)
	if err != nil || len(out) == 0 {
		return PoolData{}, apyerr.ExternalService(buildErrorCodeB(apyerr.KindExternalService, 19), "venueb.GetPoolData",
			"failed to fetch TVL", nil)
	}
	tvl, _ := out[0].(*big.Int)
	if tvl == nil {
		tvl = big.NewInt(0)
	}
	return PoolData{TVL: tvl}, nil
}

// mintNftTokenID extracts the minted position's NFT token id from the mint
// receipt, grounded verbatim-in-semantics on blackhole.go's MintNftTokenId:
// walk the decoded Transfer event and take its tokenId where from is the
// zero address (an ERC-721 mint). Falls back to zero if the event can't be
// located.
func mintNftTokenID(nftManagerClient contractclient.ContractClient, receipt *contractclient.TxReceipt) *big.Int {
	tokenID := big.NewInt(0)
	eventsJSON, err := nftManagerClient.ParseReceipt(receipt)
	if err != nil {
		return tokenID
	}
	events, err := decodeEvents(eventsJSON)
	if err != nil {
		return tokenID
	}
	zeroAddr := common.Address{}
	for _, event := range events {
		if event.EventName != "Transfer" {
			continue
		}
		fromAddr, _ := event.Parameter["from"].(string)
		if fromAddr == "" || common.HexToAddress(fromAddr) != zeroAddr {
			continue
		}
		tokenID = parseEventAmount(event.Parameter["tokenId"])
		break
	}
	return tokenID
}

// parseDecreaseLiquidityAmounts extracts the amounts a decreaseLiquidity
// call removed from its decoded receipt events, the same decoded-event walk
// mintNftTokenID uses. Falls back to zero if the event can't be located.
func parseDecreaseLiquidityAmounts(nftManagerClient contractclient.ContractClient, receipt *contractclient.TxReceipt) (*big.Int, *big.Int) {
	amount0, amount1 := big.NewInt(0), big.NewInt(0)
	eventsJSON, err := nftManagerClient.ParseReceipt(receipt)
	if err != nil {
		return amount0, amount1
	}
	events, err := decodeEvents(eventsJSON)
	if err != nil {
		return amount0, amount1
	}
	for _, event := range events {
		if event.EventName != "DecreaseLiquidity" {
			continue
		}
		amount0 = parseEventAmount(event.Parameter["amount0"])
		amount1 = parseEventAmount(event.Parameter["amount1"])
		break
	}
	return amount0, amount1
}
