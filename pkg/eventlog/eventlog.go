// Package eventlog implements the append-only lifecycle EventRecord model
// (§3.1) used for diagnostics only — it is never consulted by control flow.
package eventlog

import "context"

// Event names the lifecycle moment being recorded. Every operation emits a
// started event followed by exactly one of {completed, failed} (§7).
type Event string

const (
	StrategyDepositStarted         Event = "strategy_deposit_started"
	StrategyDepositCompleted       Event = "strategy_deposit_completed"
	StrategyDepositFailed          Event = "strategy_deposit_failed"
	StrategyWithdrawStarted        Event = "strategy_withdraw_started"
	StrategyWithdrawCompleted      Event = "strategy_withdraw_completed"
	StrategyWithdrawFailed         Event = "strategy_withdraw_failed"
	StrategyRebalanceStarted       Event = "strategy_rebalance_started"
	StrategyRebalanceCompleted     Event = "strategy_rebalance_completed"
	StrategyRebalanceFailed        Event = "strategy_rebalance_failed"
	AddLiquidityToPoolStarted      Event = "add_liquidity_to_pool_started"
	AddLiquidityToPoolCompleted    Event = "add_liquidity_to_pool_completed"
	AddLiquidityToPoolFailed       Event = "add_liquidity_to_pool_failed"
	WithdrawLiquidityFromPoolEvent Event = "withdraw_liquidity_from_pool_started"
)

// Record is an EventRecord (§3.1): append-only, carries Context identity
// fields plus whatever the emitting operation attached to Fields.
type Record struct {
	ID            uint64
	CorrelationID string
	Event         Event
	TimestampNS   int64
	User          string
	StrategyID    *uint64
	Fields        map[string]string
}

// Store is the append-only event-record sink a service owns. Persistence
// is backed by internal/db in production, an in-memory slice in tests.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Page(ctx context.Context, page, pageSize int, descending bool, search string) ([]Record, error)
}

// InMemoryStore is the Test-environment / unit-test Store implementation.
type InMemoryStore struct {
	records []Record
	nextID  uint64
}

func NewInMemoryStore() *InMemoryStore { return &InMemoryStore{} }

func (s *InMemoryStore) Append(ctx context.Context, rec Record) error {
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, rec)
	return nil
}

func (s *InMemoryStore) Page(ctx context.Context, page, pageSize int, descending bool, search string) ([]Record, error) {
	filtered := s.records
	if search != "" {
		filtered = nil
		for _, r := range s.records {
			if string(r.Event) == search || r.User == search {
				filtered = append(filtered, r)
			}
		}
	}
	if descending {
		reversed := make([]Record, len(filtered))
		for i, r := range filtered {
			reversed[len(filtered)-1-i] = r
		}
		filtered = reversed
	}
	start := page * pageSize
	if start >= len(filtered) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}
