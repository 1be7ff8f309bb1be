package db

import (
	"fmt"

	"github.com/liquidops/apyvault/pkg/strategyhistory"
	"gorm.io/gorm/clause"
)

// StrategyBootstrapRecord is the GORM model for one strategy's
// probe-deposit bootstrap progress (§4.12 step 2), mirroring
// strategy_states_service.rs's upsert-on-attempt state.
type StrategyBootstrapRecord struct {
	StrategyID         uint64 `gorm:"primaryKey"`
	InitializedAtSet   bool
	InitializedAt      int64
	InitializeAttempts int
	LastError          string `gorm:"type:varchar(512)"`
}

func (StrategyBootstrapRecord) TableName() string { return "strategy_history_bootstrap" }

// StrategySnapshotRecord is one strategyhistory.StrategySnapshot row.
type StrategySnapshotRecord struct {
	ID                   uint64 `gorm:"primaryKey;autoIncrement"`
	StrategyID           uint64 `gorm:"index"`
	TimestampSec         int64  `gorm:"index"`
	TotalBalance         string `gorm:"type:varchar(78);not null"`
	TotalShares          string `gorm:"type:varchar(78);not null"`
	ProbeLiquidityAmount string `gorm:"type:varchar(78);not null"`
	UsersCount           int
}

func (StrategySnapshotRecord) TableName() string { return "strategy_history_snapshots" }

// StrategyHistoryStore implements strategyhistory.Store over MySQL.
type StrategyHistoryStore struct {
	db *DB
}

func NewStrategyHistoryStore(db *DB) *StrategyHistoryStore { return &StrategyHistoryStore{db: db} }

func (s *StrategyHistoryStore) LoadState(strategyID uint64) (strategyhistory.StrategyState, bool, error) {
	var rec StrategyBootstrapRecord
	err := s.db.conn.Where("strategy_id = ?", strategyID).First(&rec).Error
	if err != nil {
		return strategyhistory.StrategyState{}, false, nil
	}
	st := strategyhistory.StrategyState{
		InitializeAttempts: rec.InitializeAttempts,
		LastError:          rec.LastError,
	}
	if rec.InitializedAtSet {
		ts := rec.InitializedAt
		st.InitializedAt = &ts
	}
	return st, true, nil
}

func (s *StrategyHistoryStore) SaveState(strategyID uint64, st strategyhistory.StrategyState) error {
	rec := StrategyBootstrapRecord{
		StrategyID:         strategyID,
		InitializeAttempts: st.InitializeAttempts,
		LastError:          st.LastError,
	}
	if st.InitializedAt != nil {
		rec.InitializedAtSet = true
		rec.InitializedAt = *st.InitializedAt
	}
	if err := s.db.conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "strategy_id"}},
		UpdateAll: true,
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to upsert strategy bootstrap state: %w", err)
	}
	return nil
}

func (s *StrategyHistoryStore) AppendSnapshot(snap strategyhistory.StrategySnapshot) error {
	row := StrategySnapshotRecord{
		StrategyID:           snap.StrategyID,
		TimestampSec:         snap.TimestampSec,
		TotalBalance:         bigIntToString(snap.TotalBalance),
		TotalShares:          bigIntToString(snap.TotalShares),
		ProbeLiquidityAmount: bigIntToString(snap.ProbeLiquidityAmount),
		UsersCount:           snap.UsersCount,
	}
	if err := s.db.conn.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append strategy snapshot: %w", err)
	}
	return nil
}

func (s *StrategyHistoryStore) Snapshots(strategyID uint64) ([]strategyhistory.StrategySnapshot, error) {
	var rows []StrategySnapshotRecord
	if err := s.db.conn.Where("strategy_id = ?", strategyID).Order("timestamp_sec ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load strategy snapshots: %w", err)
	}
	out := make([]strategyhistory.StrategySnapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, strategyhistory.StrategySnapshot{
			StrategyID:           r.StrategyID,
			TimestampSec:         r.TimestampSec,
			TotalBalance:         stringToBigInt(r.TotalBalance),
			TotalShares:          stringToBigInt(r.TotalShares),
			ProbeLiquidityAmount: stringToBigInt(r.ProbeLiquidityAmount),
			UsersCount:           r.UsersCount,
		})
	}
	return out, nil
}
