package venue

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/contractclient"
)

// fakeContractClient is a scriptable contractclient.ContractClient double:
// Call answers keyed on method name, Send/ParseReceipt return fixed values
// regardless of arguments. Unlike MockClient (which implements
// LiquidityClient directly and never touches receipt parsing at all), this
// fake drives the real VenueA/VenueB adaptors through their actual
// ParseReceipt -> decodeEvents -> parseEventAmount path.
type fakeContractClient struct {
	address          common.Address
	callResults      map[string][]interface{}
	sendHash         common.Hash
	sendErr          error
	parseReceiptJSON string
	parseReceiptErr  error
}

var _ contractclient.ContractClient = (*fakeContractClient)(nil)

func (f *fakeContractClient) Call(from *common.Address, method string, args ...interface{}) ([]interface{}, error) {
	out, ok := f.callResults[method]
	if !ok {
		return nil, fmt.Errorf("fakeContractClient: no stub for method %q", method)
	}
	return out, nil
}

func (f *fakeContractClient) Send(standard contractclient.Standard, gasLimit *big.Int, from *common.Address, key *ecdsa.PrivateKey, method string, args ...interface{}) (common.Hash, error) {
	return f.sendHash, f.sendErr
}

func (f *fakeContractClient) ContractAddress() common.Address { return f.address }
func (f *fakeContractClient) Abi() *abi.ABI                    { return nil }

func (f *fakeContractClient) ParseReceipt(receipt *contractclient.TxReceipt) (string, error) {
	return f.parseReceiptJSON, f.parseReceiptErr
}

// stubTxListener returns the same receipt for any hash; none of these
// tests depend on per-hash receipt identity, only on ParseReceipt's
// scripted output.
type stubTxListener struct {
	receipt *contractclient.TxReceipt
}

func (s *stubTxListener) WaitForTransaction(hash common.Hash) (*contractclient.TxReceipt, error) {
	return s.receipt, nil
}

// fakeLedger answers TransferFee with a fixed fee and no-ops everything
// else, matching InMemoryLedger's Test-environment semantics (§4.5 step 4)
// closely enough for venue-level tests that don't exercise ledger payouts.
type fakeLedger struct {
	fee *big.Int
}

func (f *fakeLedger) TransferFrom(ctx context.Context, token common.Address, from common.Address, amount *big.Int) (uint64, error) {
	return 0, nil
}

func (f *fakeLedger) Transfer(ctx context.Context, token common.Address, to common.Address, amount *big.Int) (*big.Int, error) {
	return amount, nil
}

func (f *fakeLedger) Approve(ctx context.Context, token common.Address, spender common.Address, amount *big.Int) error {
	return nil
}

func (f *fakeLedger) TransferFee(ctx context.Context, token common.Address) (*big.Int, error) {
	return f.fee, nil
}
