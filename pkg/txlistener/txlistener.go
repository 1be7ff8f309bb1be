// Package txlistener awaits transaction confirmation, the suspension
// point every Send() completes through. Grounded on the teacher's
// cmd/main.go wiring of a TxListener with WithPollInterval/WithTimeout
// options; the implementation itself was left out of the retrieved pack
// and is authored here from the call sites in blackhole.go.
package txlistener

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/liquidops/apyvault/pkg/contractclient"
)

// TxListener awaits confirmation of a previously submitted transaction.
type TxListener interface {
	WaitForTransaction(hash common.Hash) (*contractclient.TxReceipt, error)
}

// Option configures an EthTxListener.
type Option func(*EthTxListener)

func WithPollInterval(d time.Duration) Option {
	return func(l *EthTxListener) { l.pollInterval = d }
}

func WithTimeout(d time.Duration) Option {
	return func(l *EthTxListener) { l.timeout = d }
}

// EthTxListener polls a JSON-RPC endpoint for a transaction receipt.
type EthTxListener struct {
	client       *ethclient.Client
	pollInterval time.Duration
	timeout      time.Duration
}

func NewTxListener(client *ethclient.Client, opts ...Option) *EthTxListener {
	l := &EthTxListener{client: client, pollInterval: 2 * time.Second, timeout: 2 * time.Minute}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *EthTxListener) WaitForTransaction(hash common.Hash) (*contractclient.TxReceipt, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := l.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return toTxReceipt(hash, receipt), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for tx %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func toTxReceipt(hash common.Hash, r *types.Receipt) *contractclient.TxReceipt {
	return &contractclient.TxReceipt{
		TxHash:            hash,
		Status:            r.Status,
		GasUsed:           fmt.Sprintf("%d", r.GasUsed),
		EffectiveGasPrice: r.EffectiveGasPrice.String(),
		Logs:              r.Logs,
	}
}

// MockTxListener is the Test-environment TxListener: it returns a
// preconfigured receipt immediately, no polling, no suspension.
type MockTxListener struct {
	Receipt *contractclient.TxReceipt
	Err     error
}

func (m *MockTxListener) WaitForTransaction(hash common.Hash) (*contractclient.TxReceipt, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Receipt != nil {
		r := *m.Receipt
		r.TxHash = hash
		return &r, nil
	}
	return &contractclient.TxReceipt{TxHash: hash, Status: 1, GasUsed: "21000", EffectiveGasPrice: "1"}, nil
}
