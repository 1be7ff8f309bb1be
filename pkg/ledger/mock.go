package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// InMemoryLedger backs the Test environment (§6.4): transfers never touch
// a real chain, fees are configured per token, and allowances are tracked
// only so tests can assert on them.
type InMemoryLedger struct {
	mu         sync.Mutex
	fees       map[TokenID]*big.Int
	allowances map[TokenID]map[common.Address]*big.Int
	blockIndex uint64
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		fees:       make(map[TokenID]*big.Int),
		allowances: make(map[TokenID]map[common.Address]*big.Int),
	}
}

// SetFee configures the transfer fee InMemoryLedger reports for token.
func (l *InMemoryLedger) SetFee(token TokenID, fee *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fees[token] = fee
}

func (l *InMemoryLedger) TransferFrom(ctx context.Context, token TokenID, from common.Address, amount *big.Int) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blockIndex++
	return l.blockIndex, nil
}

func (l *InMemoryLedger) Transfer(ctx context.Context, token TokenID, to common.Address, amount *big.Int) (*big.Int, error) {
	return amount, nil
}

func (l *InMemoryLedger) Approve(ctx context.Context, token TokenID, spender common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[token] == nil {
		l.allowances[token] = make(map[common.Address]*big.Int)
	}
	l.allowances[token][spender] = amount
	return nil
}

func (l *InMemoryLedger) Allowance(token TokenID, spender common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.allowances[token][spender]; ok {
		return a
	}
	return big.NewInt(0)
}

func (l *InMemoryLedger) TransferFee(ctx context.Context, token TokenID) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fee, ok := l.fees[token]; ok {
		return fee, nil
	}
	return big.NewInt(0), nil
}
