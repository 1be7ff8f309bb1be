// Package contractclient wraps per-contract RPC access behind a small
// interface (Call/Send/Abi/ParseReceipt), the shape the teacher's
// blackhole.go consumes but never ships a concrete implementation for in
// this pack. Generalized here to back both venue adaptors and the ledger.
package contractclient

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Standard selects the transaction envelope used by Send.
type Standard int

const (
	StandardLegacy Standard = iota
	StandardEIP1559
)

// TxReceipt is the subset of a chain receipt the rest of the system needs;
// gas figures are kept as decimal strings so callers can route them
// through big.Int without ever touching float64.
type TxReceipt struct {
	TxHash            common.Hash
	Status            uint64
	GasUsed           string
	EffectiveGasPrice string
	Logs              []*types.Log
}

// ContractClient is the logical operation set one deployed contract
// exposes: read-only Call, state-mutating Send, and receipt introspection.
type ContractClient interface {
	Call(from *common.Address, method string, args ...interface{}) ([]interface{}, error)
	Send(standard Standard, gasLimit *big.Int, from *common.Address, key *ecdsa.PrivateKey, method string, args ...interface{}) (common.Hash, error)
	ContractAddress() common.Address
	Abi() *abi.ABI
	ParseReceipt(receipt *TxReceipt) (string, error)
}

// EthContractClient is the production ContractClient, backing calls
// against a live EVM-compatible RPC endpoint via go-ethereum's ethclient.
type EthContractClient struct {
	client  *ethclient.Client
	address common.Address
	abi     *abi.ABI
	chainID *big.Int
}

var _ ContractClient = (*EthContractClient)(nil)

func NewEthContractClient(client *ethclient.Client, address common.Address, contractABI *abi.ABI, chainID *big.Int) *EthContractClient {
	return &EthContractClient{client: client, address: address, abi: contractABI, chainID: chainID}
}

func (c *EthContractClient) ContractAddress() common.Address { return c.address }
func (c *EthContractClient) Abi() *abi.ABI                    { return c.abi }

func (c *EthContractClient) Call(from *common.Address, method string, args ...interface{}) ([]interface{}, error) {
	ctx := context.Background()
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack call %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &c.address, Data: input}
	if from != nil {
		msg.From = *from
	}
	out, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return c.abi.Unpack(method, out)
}

func (c *EthContractClient) Send(standard Standard, gasLimit *big.Int, from *common.Address, key *ecdsa.PrivateKey, method string, args ...interface{}) (common.Hash, error) {
	ctx := context.Background()
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack send %s: %w", method, err)
	}

	nonce, err := c.client.PendingNonceAt(ctx, *from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce for %s: %w", method, err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price for %s: %w", method, err)
	}
	limit := uint64(0)
	if gasLimit != nil {
		limit = gasLimit.Uint64()
	} else {
		est, err := c.client.EstimateGas(ctx, ethereum.CallMsg{From: *from, To: &c.address, Data: input})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas for %s: %w", method, err)
		}
		limit = est
	}

	var signer types.Signer = types.NewEIP155Signer(c.chainID)
	var tx *types.Transaction
	if standard == StandardEIP1559 {
		tip, err := c.client.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("gas tip for %s: %w", method, err)
		}
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   c.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: gasPrice,
			Gas:       limit,
			To:        &c.address,
			Value:     big.NewInt(0),
			Data:      input,
		})
		signer = types.NewLondonSigner(c.chainID)
	} else {
		tx = types.NewTransaction(nonce, c.address, big.NewInt(0), limit, gasPrice, input)
	}

	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign %s: %w", method, err)
	}
	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send %s: %w", method, err)
	}
	return signed.Hash(), nil
}

// ParseReceipt decodes every log in receipt against this contract's ABI
// and returns the result as a JSON array of {EventName, Parameter} objects,
// mirroring the shape blackhole.go's MintNftTokenId expects to parse.
func (c *EthContractClient) ParseReceipt(receipt *TxReceipt) (string, error) {
	return decodeLogsJSON(c.abi, receipt.Logs)
}
