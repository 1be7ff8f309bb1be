package venue

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/liquidops/apyvault/pkg/contractclient"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/router"
	"github.com/stretchr/testify/assert"
)

// TestWithdrawLiquidityFromPool_ParsesRemoveLiquidityAmounts drives the real
// VenueA adaptor (not MockClient) through a scripted removeLiquidity
// receipt, exercising parseRemoveLiquidityAmounts end to end.
func TestWithdrawLiquidityFromPool_ParsesRemoveLiquidityAmounts(t *testing.T) {
	privKey, err := crypto.GenerateKey()
	assert.NoError(t, err)
	myAddr := crypto.PubkeyToAddress(privKey.PublicKey)
	token0 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token1 := common.HexToAddress("0x2222222222222222222222222222222222222222")
	p, ok := pool.New(token0, token1, pool.VenueA)
	assert.True(t, ok)

	cases := []struct {
		name        string
		eventsJSON  string
		wantAmount0 *big.Int
		wantAmount1 *big.Int
	}{
		{
			name:        "string-encoded amounts",
			eventsJSON:  `[{"EventName":"RemoveLiquidity","Parameter":{"amount0":"500","amount1":"300"}}]`,
			wantAmount0: big.NewInt(500),
			wantAmount1: big.NewInt(300),
		},
		{
			name:        "json-number amounts (post round-trip float64)",
			eventsJSON:  `[{"EventName":"RemoveLiquidity","Parameter":{"amount0":777,"amount1":888}}]`,
			wantAmount0: big.NewInt(777),
			wantAmount1: big.NewInt(888),
		},
		{
			name:        "unrelated event present, RemoveLiquidity absent",
			eventsJSON:  `[{"EventName":"Transfer","Parameter":{"from":"0x0","tokenId":"1"}}]`,
			wantAmount0: big.NewInt(0),
			wantAmount1: big.NewInt(0),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lpClient := &fakeContractClient{
				callResults: map[string][]interface{}{
					"balanceOf": {big.NewInt(1000)},
				},
				sendHash:         common.HexToHash("0xaa"),
				parseReceiptJSON: tc.eventsJSON,
			}
			tl := &stubTxListener{receipt: &contractclient.TxReceipt{TxHash: common.HexToHash("0xaa")}}

			v := NewVenueA(VenueAConfig{
				Pool:       p,
				LPClient:   lpClient,
				Ledger:     &fakeLedger{fee: big.NewInt(0)},
				MyAddr:     myAddr,
				PrivateKey: privKey,
				TxListener: tl,
			}, router.New())

			result, err := v.WithdrawLiquidityFromPool(context.Background(), big.NewInt(1000), big.NewInt(500))
			assert.NoError(t, err)
			assert.Equal(t, tc.wantAmount0, result.Token0Amount)
			assert.Equal(t, tc.wantAmount1, result.Token1Amount)
		})
	}
}

// TestWithdrawLiquidityFromPool_NonZeroPayout is the regression case the
// maintainer review called out directly: a real RemoveLiquidity event must
// produce a non-zero payout, not the old hardcoded (0, 0).
func TestWithdrawLiquidityFromPool_NonZeroPayout(t *testing.T) {
	privKey, err := crypto.GenerateKey()
	assert.NoError(t, err)
	myAddr := crypto.PubkeyToAddress(privKey.PublicKey)
	token0 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token1 := common.HexToAddress("0x2222222222222222222222222222222222222222")
	p, ok := pool.New(token0, token1, pool.VenueA)
	assert.True(t, ok)

	lpClient := &fakeContractClient{
		callResults: map[string][]interface{}{
			"balanceOf": {big.NewInt(1_000_000)},
		},
		sendHash:         common.HexToHash("0xbb"),
		parseReceiptJSON: `[{"EventName":"RemoveLiquidity","Parameter":{"amount0":"123000","amount1":"45000"}}]`,
	}
	tl := &stubTxListener{receipt: &contractclient.TxReceipt{TxHash: common.HexToHash("0xbb")}}

	v := NewVenueA(VenueAConfig{
		Pool:       p,
		LPClient:   lpClient,
		Ledger:     &fakeLedger{fee: big.NewInt(0)},
		MyAddr:     myAddr,
		PrivateKey: privKey,
		TxListener: tl,
	}, router.New())

	result, err := v.WithdrawLiquidityFromPool(context.Background(), big.NewInt(1_000_000), big.NewInt(500_000))
	assert.NoError(t, err)
	assert.True(t, result.Token0Amount.Sign() > 0, "Token0Amount must be non-zero")
	assert.True(t, result.Token1Amount.Sign() > 0, "Token1Amount must be non-zero")
}
