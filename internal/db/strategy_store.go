package db

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/strategy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StrategyStateRecord is the GORM model for one strategy's mutable State
// (§3.1), split from its per-user share rows the way strategy.State
// itself splits UserShares/InitialDeposits into maps.
type StrategyStateRecord struct {
	StrategyID                uint64 `gorm:"primaryKey"`
	CurrentPoolSet            bool
	CurrentPoolToken0         string `gorm:"type:varchar(42)"`
	CurrentPoolToken1         string `gorm:"type:varchar(42)"`
	CurrentPoolVenue          int
	PositionID                string `gorm:"type:varchar(128)"`
	TotalBalance              string `gorm:"type:varchar(78);not null"`
	TotalShares               string `gorm:"type:varchar(78);not null"`
	CurrentLiquidity          string `gorm:"type:varchar(78)"`
	CurrentLiquiditySet       bool
	CurrentLiquidityUpdatedAt int64
	LastRebalanceAt           uint64
	LastRebalanceAtSet        bool
	Enabled                   bool
}

func (StrategyStateRecord) TableName() string { return "strategy_states" }

// StrategyUserShareRecord is one user's {shares, initial_deposit} pair
// within a strategy, keyed by (strategy_id, user) the way
// strategy.State.UserShares/InitialDeposits are keyed.
type StrategyUserShareRecord struct {
	StrategyID     uint64 `gorm:"primaryKey"`
	User           string `gorm:"primaryKey;type:varchar(64)"`
	Shares         string `gorm:"type:varchar(78);not null"`
	InitialDeposit string `gorm:"type:varchar(78);not null"`
}

func (StrategyUserShareRecord) TableName() string { return "strategy_user_shares" }

// StrategyStore implements registry.Store over MySQL.
type StrategyStore struct {
	db *DB
}

func NewStrategyStore(db *DB) *StrategyStore { return &StrategyStore{db: db} }

// LoadAll implements registry.Store: reconstructs every persisted
// strategy.State, merging the state row with its user-share rows.
func (s *StrategyStore) LoadAll() (map[uint64]*strategy.State, error) {
	var states []StrategyStateRecord
	if err := s.db.conn.Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to load strategy states: %w", err)
	}
	var shares []StrategyUserShareRecord
	if err := s.db.conn.Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to load strategy user shares: %w", err)
	}

	byStrategy := make(map[uint64][]StrategyUserShareRecord)
	for _, r := range shares {
		byStrategy[r.StrategyID] = append(byStrategy[r.StrategyID], r)
	}

	out := make(map[uint64]*strategy.State, len(states))
	for _, rec := range states {
		st := strategy.NewState()
		st.TotalBalance = stringToBigInt(rec.TotalBalance)
		st.TotalShares = stringToBigInt(rec.TotalShares)
		st.Enabled = rec.Enabled
		if rec.CurrentPoolSet {
			p, ok := pool.New(common.HexToAddress(rec.CurrentPoolToken0), common.HexToAddress(rec.CurrentPoolToken1), pool.Venue(rec.CurrentPoolVenue))
			if ok {
				st.CurrentPool = &p
			}
			handle := strategy.PositionHandle(rec.PositionID)
			st.PositionID = &handle
		}
		if rec.CurrentLiquiditySet {
			st.CurrentLiquidity = stringToBigInt(rec.CurrentLiquidity)
			ts := rec.CurrentLiquidityUpdatedAt
			st.CurrentLiquidityUpdatedAt = &ts
		}
		if rec.LastRebalanceAtSet {
			ts := rec.LastRebalanceAt
			st.LastRebalanceAt = &ts
		}
		for _, sh := range byStrategy[rec.StrategyID] {
			st.UserShares[sh.User] = stringToBigInt(sh.Shares)
			st.InitialDeposits[sh.User] = stringToBigInt(sh.InitialDeposit)
		}
		out[rec.StrategyID] = st
	}
	return out, nil
}

// Save implements registry.Store: upserts the state row and replaces the
// user-share rows wholesale, mirroring MySQLRecorder.RecordReport's
// single-transaction write-on-commit pattern.
func (s *StrategyStore) Save(id uint64, st *strategy.State) error {
	rec := StrategyStateRecord{
		StrategyID:   id,
		TotalBalance: bigIntToString(st.TotalBalance),
		TotalShares:  bigIntToString(st.TotalShares),
		Enabled:      st.Enabled,
	}
	if st.CurrentPool != nil {
		rec.CurrentPoolSet = true
		rec.CurrentPoolToken0 = st.CurrentPool.Token0.Hex()
		rec.CurrentPoolToken1 = st.CurrentPool.Token1.Hex()
		rec.CurrentPoolVenue = int(st.CurrentPool.Venue)
	}
	if st.PositionID != nil {
		rec.PositionID = string(*st.PositionID)
	}
	if st.CurrentLiquidity != nil {
		rec.CurrentLiquiditySet = true
		rec.CurrentLiquidity = bigIntToString(st.CurrentLiquidity)
	}
	if st.CurrentLiquidityUpdatedAt != nil {
		rec.CurrentLiquidityUpdatedAt = *st.CurrentLiquidityUpdatedAt
	}
	if st.LastRebalanceAt != nil {
		rec.LastRebalanceAtSet = true
		rec.LastRebalanceAt = *st.LastRebalanceAt
	}

	return s.db.conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "strategy_id"}},
			UpdateAll: true,
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to upsert strategy state: %w", err)
		}
		if err := tx.Where("strategy_id = ?", id).Delete(&StrategyUserShareRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear strategy user shares: %w", err)
		}
		if len(st.UserShares) == 0 {
			return nil
		}
		shares := make([]StrategyUserShareRecord, 0, len(st.UserShares))
		for user, amount := range st.UserShares {
			shares = append(shares, StrategyUserShareRecord{
				StrategyID:     id,
				User:           user,
				Shares:         bigIntToString(amount),
				InitialDeposit: bigIntToString(st.InitialDeposits[user]),
			})
		}
		if err := tx.Create(&shares).Error; err != nil {
			return fmt.Errorf("failed to insert strategy user shares: %w", err)
		}
		return nil
	})
}
