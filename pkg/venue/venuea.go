package venue

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/contractclient"
	"github.com/liquidops/apyvault/pkg/ledger"
	"github.com/liquidops/apyvault/pkg/money"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/router"
	"github.com/liquidops/apyvault/pkg/txlistener"
)

var buildErrorCodeA = apyerr.BuildErrorCode(apyerr.AreaLibraries, apyerr.DomainVenue, apyerr.ComponentVenueA)

// precisionMultiplier reduces truncation error on small-unit tokens when
// quoting a USDT price for TVL (§4.4.1 "Pool TVL").
const precisionMultiplier = 1000

// VenueA adapts the ratio-suggesting venue (§4.4.1): single-call
// add/remove liquidity plus a suggested-ratio query. Grounded on
// blackhole.go's GetAMMState/Swap (single-phase construction, no
// with_pool() resolution step needed).
type VenueA struct {
	p             pool.Pool
	poolClient    contractclient.ContractClient
	lpClient      contractclient.ContractClient
	usdtToken     common.Address
	usdtDecimals  int
	tokenDecimals map[common.Address]int
	ledger        ledger.Ledger
	swapRouter    *router.Router
	myAddr        common.Address
	privateKey    *ecdsa.PrivateKey
	tl            txlistener.TxListener
}

var _ LiquidityClient = (*VenueA)(nil)
var _ router.Swapper = (*VenueA)(nil)

type VenueAConfig struct {
	Pool          pool.Pool
	PoolClient    contractclient.ContractClient
	LPClient      contractclient.ContractClient
	USDTToken     common.Address
	USDTDecimals  int
	TokenDecimals map[common.Address]int
	Ledger        ledger.Ledger
	MyAddr        common.Address
	PrivateKey    *ecdsa.PrivateKey
	TxListener    txlistener.TxListener
}

// NewVenueA constructs a single-phase VenueA client; unlike VenueB, no
// pool-handle resolution is required before use.
func NewVenueA(cfg VenueAConfig, swapRouter *router.Router) *VenueA {
	return &VenueA{
		p:             cfg.Pool,
		poolClient:    cfg.PoolClient,
		lpClient:      cfg.LPClient,
		usdtToken:     cfg.USDTToken,
		usdtDecimals:  cfg.USDTDecimals,
		tokenDecimals: cfg.TokenDecimals,
		ledger:        cfg.Ledger,
		swapRouter:    swapRouter,
		myAddr:        cfg.MyAddr,
		privateKey:    cfg.PrivateKey,
		tl:            cfg.TxListener,
	}
}

func (v *VenueA) Venue() pool.Venue { return pool.VenueA }

// suggestedRatio asks the venue for a suggested token0/token1 deposit
// ratio given amount (§4.4.1 step 1).
func (v *VenueA) suggestedRatio(ctx context.Context, amount *big.Int) (suggested0, suggested1 *big.Int, err error) {
	out, err := v.poolClient.Call(&v.myAddr, "quoteAddLiquidity", v.p.Token0, v.p.Token1, amount)
	if err != nil {
		return nil, nil, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 1), "venuea.suggestedRatio",
			"failed to quote suggested ratio", map[string]string{"err": err.Error()})
	}
	if len(out) != 2 {
		return nil, nil, apyerr.Infrastructure(buildErrorCodeA(apyerr.KindInfrastructure, 1), "venuea.suggestedRatio",
			"unexpected quoteAddLiquidity result shape", nil)
	}
	return out[0].(*big.Int), out[1].(*big.Int), nil
}

// AddLiquidityToPool implements the 9-step split/swap/rebalance/add
// algorithm of §4.4.1.
func (v *VenueA) AddLiquidityToPool(ctx context.Context, amount *big.Int) (AddResult, error) {
	// Step 1: suggested ratio.
	suggested0, suggested1, err := v.suggestedRatio(ctx, amount)
	if err != nil {
		return AddResult{}, err
	}

	// Step 2: transfer fees.
	fee0, err := v.ledger.TransferFee(ctx, v.p.Token0)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 2), "venuea.AddLiquidityToPool",
			"failed to fetch token0 transfer fee", nil)
	}
	fee1, err := v.ledger.TransferFee(ctx, v.p.Token1)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 3), "venuea.AddLiquidityToPool",
			"failed to fetch token1 transfer fee", nil)
	}

	// Step 3: optimal swap quote for amount of token0 -> token1.
	quote, err := v.swapRouter.QuoteOptimal(ctx, v.p.Token0, v.p.Token1, amount)
	if err != nil {
		return AddResult{}, err
	}

	// Step 4: plan the split. target_ratio = suggested1/suggested0,
	// swap_price = quoted_out/amount. Solve swap_price*x = target_ratio*(amount-x)
	// for x in continuous arithmetic, then truncate to integer:
	// x = amount*target_ratio / (target_ratio + swap_price).
	amountF := money.ToFloat(amount)
	targetRatio := money.ToFloat(suggested1) / money.ToFloat(suggested0)
	swapPrice := money.ToFloat(quote.AmountOut) / amountF
	var amountToSwap *big.Int
	if targetRatio+swapPrice == 0 {
		amountToSwap = big.NewInt(0)
	} else {
		swapAmountF := amountF * targetRatio / (targetRatio + swapPrice)
		amountToSwap, _ = new(big.Float).SetFloat64(swapAmountF).Int(nil)
	}
	amountToPoolAsToken0 := money.Sub(amount, amountToSwap)

	// Step 5: execute the swap.
	token1Received, err := v.swapRouter.Swap(ctx, v.p.Token0, v.p.Token1, amountToSwap, quote.Venue)
	if err != nil {
		return AddResult{}, err
	}

	// Step 6: rebalance to actual. token1_received may diverge from the
	// amount the suggested ratio calls for given amount_to_pool_as_token0;
	// whichever side would overshoot the ratio is scaled down to match,
	// then a transfer fee is reserved from each side for gas.
	token0Final := amountToPoolAsToken0
	token1Final := token1Received
	targetToken1, _ := new(big.Float).Mul(
		new(big.Float).SetFloat64(targetRatio), new(big.Float).SetInt(amountToPoolAsToken0)).Int(nil)

	if targetToken1.Cmp(token1Received) > 0 && targetRatio != 0 {
		scaled := money.ToFloat(token1Received) / targetRatio
		token0Final, _ = new(big.Float).SetFloat64(scaled).Int(nil)
	} else {
		token1Final = targetToken1
	}
	token0Final = money.SaturatingSub(token0Final, fee0)
	token1Final = money.SaturatingSub(token1Final, fee1)

	// Step 7: fail if either side is zero.
	if money.IsZero(token0Final) || money.IsZero(token1Final) {
		return AddResult{}, apyerr.BusinessLogic(buildErrorCodeA(apyerr.KindBusinessLogic, 1), "venuea.AddLiquidityToPool",
			"Insufficient amounts after swap/fees", nil)
	}

	// Step 8: add liquidity.
	sendHash, err := v.lpClient.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey,
		"addLiquidity", v.p.Token0, v.p.Token1, token0Final, token1Final)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 4), "venuea.AddLiquidityToPool",
			"failed to submit addLiquidity", nil)
	}
	receipt, err := v.tl.WaitForTransaction(sendHash)
	if err != nil {
		return AddResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 5), "venuea.AddLiquidityToPool",
			"addLiquidity transaction failed", nil)
	}

	// Step 9: base_token_equivalent_total = token0_final + token1_final*suggested0/suggested1.
	baseEquivalent := money.Add(token0Final, money.MulDiv(token1Final, suggested0, suggested1))

	return AddResult{
		Token0Amount:             token0Final,
		Token1Amount:             token1Final,
		PositionID:               receipt.TxHash.Hex(),
		BaseTokenEquivalentTotal: baseEquivalent,
	}, nil
}

// WithdrawLiquidityFromPool implements §4.4.1's withdrawal algorithm.
func (v *VenueA) WithdrawLiquidityFromPool(ctx context.Context, totalShares, shares *big.Int) (WithdrawResult, error) {
	lpBalanceOut, err := v.lpClient.Call(&v.myAddr, "balanceOf", v.myAddr)
	if err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 6), "venuea.WithdrawLiquidityFromPool",
			"failed to fetch LP balance", nil)
	}
	lpBalance := lpBalanceOut[0].(*big.Int)
	lpToWithdraw := money.MulDiv(lpBalance, shares, totalShares)

	out, err := v.lpClient.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey,
		"removeLiquidity", v.p.Token0, v.p.Token1, lpToWithdraw)
	if err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 7), "venuea.WithdrawLiquidityFromPool",
			"failed to submit removeLiquidity", nil)
	}
	receipt, err := v.tl.WaitForTransaction(out)
	if err != nil {
		return WithdrawResult{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 8), "venuea.WithdrawLiquidityFromPool",
			"removeLiquidity transaction failed", nil)
	}
	events, err := v.lpClient.ParseReceipt(receipt)
	if err != nil {
		return WithdrawResult{}, apyerr.Infrastructure(buildErrorCodeA(apyerr.KindInfrastructure, 2), "venuea.WithdrawLiquidityFromPool",
			"failed to parse removeLiquidity receipt", nil)
	}
	amount0, amount1 := parseRemoveLiquidityAmounts(events)
	return WithdrawResult{Token0Amount: amount0, Token1Amount: amount1}, nil
}

// GetPositionByID reads the LP balance and rescales it into native token
// subunits and a common USDT-subunit mark (§4.4.1 "Position query").
func (v *VenueA) GetPositionByID(ctx context.Context, positionID string) (PositionInfo, error) {
	lpBalanceOut, err := v.lpClient.Call(&v.myAddr, "balanceOf", v.myAddr)
	if err != nil {
		return PositionInfo{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 9), "venuea.GetPositionByID",
			"failed to fetch LP balance", nil)
	}
	lpBalance := lpBalanceOut[0].(*big.Int)

	out, err := v.poolClient.Call(&v.myAddr, "getPositionAmounts", v.p.Token0, v.p.Token1, lpBalance)
	if err != nil {
		return PositionInfo{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 10), "venuea.GetPositionByID",
			"failed to fetch underlying position amounts", nil)
	}
	amount0, amount1, usd0, usd1 := positionAmounts(out)

	return PositionInfo{
		PositionID:   positionID,
		Token0Amount: amount0,
		Token1Amount: amount1,
		USDAmount0:   usd0,
		USDAmount1:   usd1,
	}, nil
}

// GetPoolData computes TVL = balance0*usdtPrice0 + balance1*usdtPrice1,
// each usdtPriceN obtained by quoting 10^decimals*1000 and dividing the
// ×1000 precision multiplier back out (§4.4.1 "Pool TVL").
func (v *VenueA) GetPoolData(ctx context.Context) (PoolData, error) {
	balances, err := v.poolClient.Call(&v.myAddr, "getReserves", v.p.Token0, v.p.Token1)
	if err != nil {
		return PoolData{}, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 11), "venuea.GetPoolData",
			"failed to fetch reserves", nil)
	}
	balance0 := balances[0].(*big.Int)
	balance1 := balances[1].(*big.Int)

	unit0 := tokenUnit(v.tokenDecimals[v.p.Token0])
	unit1 := tokenUnit(v.tokenDecimals[v.p.Token1])
	price0, err := v.usdtPricePerUnit(ctx, v.p.Token0, unit0)
	if err != nil {
		return PoolData{}, err
	}
	price1, err := v.usdtPricePerUnit(ctx, v.p.Token1, unit1)
	if err != nil {
		return PoolData{}, err
	}

	tvl := money.Add(money.MulDiv(balance0, price0, unit0), money.MulDiv(balance1, price1, unit1))
	return PoolData{TVL: tvl}, nil
}

func tokenUnit(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// usdtPricePerUnit quotes how many USDT subunits one whole token (= unit
// subunits) is worth, probing with unit*precisionMultiplier subunits and
// dividing the multiplier back out to reduce truncation error on small
// probe amounts.
func (v *VenueA) usdtPricePerUnit(ctx context.Context, token common.Address, unit *big.Int) (*big.Int, error) {
	probe := new(big.Int).Mul(unit, big.NewInt(precisionMultiplier))
	quote, err := v.swapRouter.QuoteOptimal(ctx, token, v.usdtToken, probe)
	if err != nil {
		return nil, err
	}
	return money.MulDiv(quote.AmountOut, big.NewInt(1), big.NewInt(precisionMultiplier)), nil
}

// positionAmounts unpacks a getPositionAmounts result into the four
// big.Int legs it carries, defaulting any missing leg to zero.
func positionAmounts(raw []interface{}) (amount0, amount1, usd0, usd1 *big.Int) {
	get := func(i int) *big.Int {
		if i >= len(raw) {
			return big.NewInt(0)
		}
		v, _ := raw[i].(*big.Int)
		if v == nil {
			return big.NewInt(0)
		}
		return v
	}
	return get(0), get(1), get(2), get(3)
}

// parseRemoveLiquidityAmounts extracts the amounts returned by a
// removeLiquidity call from its decoded receipt events, walking the
// RemoveLiquidity event's amount0/amount1 parameters the same way
// blackhole.go's MintNftTokenId walks a Transfer event's tokenId.
// Falls back to zero if the event is absent or unparseable.
func parseRemoveLiquidityAmounts(eventsJSON string) (*big.Int, *big.Int) {
	amount0, amount1 := big.NewInt(0), big.NewInt(0)
	events, err := decodeEvents(eventsJSON)
	if err != nil {
		return amount0, amount1
	}
	for _, event := range events {
		if event.EventName != "RemoveLiquidity" {
			continue
		}
		amount0 = parseEventAmount(event.Parameter["amount0"])
		amount1 = parseEventAmount(event.Parameter["amount1"])
		break
	}
	return amount0, amount1
}

// Quote implements router.Swapper by quoting a direct swap through this
// venue's own AMM pool.
func (v *VenueA) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	out, err := v.poolClient.Call(&v.myAddr, "getAmountOut", tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 12), "venuea.Quote",
			fmt.Sprintf("failed to quote %s -> %s", tokenIn.Hex(), tokenOut.Hex()), nil)
	}
	return out[0].(*big.Int), nil
}

// Swap implements router.Swapper: approve then swap (§4.6 "All swap paths
// approve an ICRC-2-style allowance ... before invoking the swap").
func (v *VenueA) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	if err := v.ledger.Approve(ctx, tokenIn, v.poolClient.ContractAddress(), amountIn); err != nil {
		return nil, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 13), "venuea.Swap",
			"failed to approve allowance", nil)
	}
	hash, err := v.poolClient.Send(contractclient.StandardLegacy, nil, &v.myAddr, v.privateKey,
		"swapExactTokensForTokens", tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 14), "venuea.Swap",
			"failed to submit swap", nil)
	}
	receipt, err := v.tl.WaitForTransaction(hash)
	if err != nil {
		return nil, apyerr.ExternalService(buildErrorCodeA(apyerr.KindExternalService, 15), "venuea.Swap",
			"swap transaction failed", nil)
	}
	if actual, ok := parseSwapAmountOut(v.poolClient, receipt); ok {
		return actual, nil
	}
	// §4.4.1 step 5: token1_received may differ from the quote. This is
	// the fallback for when the receipt carries no parseable Swap event.
	return v.Quote(ctx, tokenIn, tokenOut, amountIn)
}

// parseSwapAmountOut reads the realized output amount back from a swap
// receipt's Swap event, the same decoded-event walk parseRemoveLiquidityAmounts
// uses. Reports ok=false if the event is absent or unparseable.
func parseSwapAmountOut(client contractclient.ContractClient, receipt *contractclient.TxReceipt) (*big.Int, bool) {
	eventsJSON, err := client.ParseReceipt(receipt)
	if err != nil {
		return nil, false
	}
	events, err := decodeEvents(eventsJSON)
	if err != nil {
		return nil, false
	}
	for _, event := range events {
		if event.EventName != "Swap" {
			continue
		}
		if raw, ok := event.Parameter["amountOut"]; ok {
			return parseEventAmount(raw), true
		}
	}
	return nil, false
}
