package venue

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/liquidops/apyvault/pkg/contractclient"
	"github.com/liquidops/apyvault/pkg/util"
	"github.com/stretchr/testify/assert"
)

// TestAddLiquidityToPool_ExtractsMintedPositionID drives the real VenueB
// adaptor through a scripted mint receipt carrying a Transfer-from-zero
// event, exercising mintNftTokenID end to end.
func TestAddLiquidityToPool_ExtractsMintedPositionID(t *testing.T) {
	privKey, err := crypto.GenerateKey()
	assert.NoError(t, err)
	myAddr := crypto.PubkeyToAddress(privKey.PublicKey)
	token0 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token1 := common.HexToAddress("0x2222222222222222222222222222222222222222")

	tick := 0
	sqrtPriceX96 := util.TickToSqrtPriceX96(tick)

	poolClient := &fakeContractClient{
		callResults: map[string][]interface{}{
			"getPool":     {common.Address{}},
			"globalState": {sqrtPriceX96, big.NewInt(int64(tick))},
		},
	}
	nftManager := &fakeContractClient{
		sendHash:         common.HexToHash("0xcc"),
		parseReceiptJSON: `[{"EventName":"Transfer","Parameter":{"from":"0x0000000000000000000000000000000000000000","tokenId":"42"}}]`,
	}
	gauge := &fakeContractClient{sendHash: common.HexToHash("0xdd")}
	tl := &stubTxListener{receipt: &contractclient.TxReceipt{TxHash: common.HexToHash("0xcc")}}

	v := NewVenueB(VenueBConfig{
		PoolClient: poolClient,
		NFTManager: nftManager,
		Gauge:      gauge,
		Ledger:     &fakeLedger{fee: big.NewInt(100)},
		MyAddr:     myAddr,
		PrivateKey: privKey,
		TxListener: tl,
	})
	v, err = v.WithPool(context.Background(), token0, token1)
	assert.NoError(t, err)

	result, err := v.AddLiquidityToPool(context.Background(), big.NewInt(1_000_000))
	assert.NoError(t, err)
	assert.Equal(t, "42", result.PositionID)
	assert.True(t, result.Token0Amount.Sign() > 0, "Token0Amount must be non-zero")
	assert.True(t, result.Token1Amount.Sign() > 0, "Token1Amount must be non-zero")
}

// TestWithdrawLiquidityFromPool_ParsesDecreaseLiquidityAmounts drives the
// real VenueB adaptor through a scripted decreaseLiquidity receipt,
// exercising parseDecreaseLiquidityAmounts end to end.
func TestWithdrawLiquidityFromPool_ParsesDecreaseLiquidityAmounts(t *testing.T) {
	cases := []struct {
		name        string
		eventsJSON  string
		wantAmount0 *big.Int
		wantAmount1 *big.Int
	}{
		{
			name:        "string-encoded amounts",
			eventsJSON:  `[{"EventName":"DecreaseLiquidity","Parameter":{"amount0":"6000","amount1":"4000"}}]`,
			wantAmount0: big.NewInt(6000),
			wantAmount1: big.NewInt(4000),
		},
		{
			name:        "json-number amounts (post round-trip float64)",
			eventsJSON:  `[{"EventName":"DecreaseLiquidity","Parameter":{"amount0":1234,"amount1":5678}}]`,
			wantAmount0: big.NewInt(1234),
			wantAmount1: big.NewInt(5678),
		},
		{
			name:        "event absent falls back to zero",
			eventsJSON:  `[{"EventName":"Collect","Parameter":{}}]`,
			wantAmount0: big.NewInt(0),
			wantAmount1: big.NewInt(0),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			privKey, err := crypto.GenerateKey()
			assert.NoError(t, err)
			myAddr := crypto.PubkeyToAddress(privKey.PublicKey)
			token0 := common.HexToAddress("0x1111111111111111111111111111111111111111")
			token1 := common.HexToAddress("0x2222222222222222222222222222222222222222")

			poolClient := &fakeContractClient{
				callResults: map[string][]interface{}{
					"getPool": {common.Address{}},
				},
			}
			nftManager := &fakeContractClient{
				callResults: map[string][]interface{}{
					"positions": {big.NewInt(10_000)},
				},
				sendHash:         common.HexToHash("0xee"),
				parseReceiptJSON: tc.eventsJSON,
			}
			gauge := &fakeContractClient{sendHash: common.HexToHash("0xff")}
			tl := &stubTxListener{receipt: &contractclient.TxReceipt{TxHash: common.HexToHash("0xee")}}

			v := NewVenueB(VenueBConfig{
				PoolClient: poolClient,
				NFTManager: nftManager,
				Gauge:      gauge,
				Ledger:     &fakeLedger{fee: big.NewInt(0)},
				MyAddr:     myAddr,
				PrivateKey: privKey,
				TxListener: tl,
			})
			v, err = v.WithPool(context.Background(), token0, token1)
			assert.NoError(t, err)
			v.positionID = big.NewInt(7)

			result, err := v.WithdrawLiquidityFromPool(context.Background(), big.NewInt(10_000), big.NewInt(5_000))
			assert.NoError(t, err)
			assert.Equal(t, tc.wantAmount0, result.Token0Amount)
			assert.Equal(t, tc.wantAmount1, result.Token1Amount)
		})
	}
}
