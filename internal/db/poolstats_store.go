package db

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/poolstats"
	"gorm.io/gorm/clause"
)

// TrackedPoolRecord is the GORM model for one poolstats.TrackedPool:
// the pool's (token0, token1, venue) identity plus whichever position is
// currently live against it, kept in its own registry separate from the
// strategy tables per §4.11's "observe a pool independent of any
// strategy investing in it".
type TrackedPoolRecord struct {
	PoolID        string `gorm:"primaryKey;type:varchar(80)"`
	Token0        string `gorm:"type:varchar(42);not null"`
	Token1        string `gorm:"type:varchar(42);not null"`
	Venue         int
	PositionIDSet bool
	PositionID    string `gorm:"type:varchar(128)"`
}

func (TrackedPoolRecord) TableName() string { return "pool_stats_tracked_pools" }

// PoolSnapshotRecord is one poolstats.Snapshot row.
type PoolSnapshotRecord struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	PoolID       string `gorm:"type:varchar(80);index"`
	TimestampSec int64  `gorm:"index"`
	Token0Amount string `gorm:"type:varchar(78);not null"`
	Token1Amount string `gorm:"type:varchar(78);not null"`
	USDAmount0   string `gorm:"type:varchar(78);not null"`
	USDAmount1   string `gorm:"type:varchar(78);not null"`
	TVL          string `gorm:"type:varchar(78);not null"`
}

func (PoolSnapshotRecord) TableName() string { return "pool_stats_snapshots" }

// PoolStatsStore implements poolstats.Store over MySQL.
type PoolStatsStore struct {
	db *DB
}

func NewPoolStatsStore(db *DB) *PoolStatsStore { return &PoolStatsStore{db: db} }

func (s *PoolStatsStore) ListPools() ([]poolstats.TrackedPool, error) {
	var rows []TrackedPoolRecord
	if err := s.db.conn.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracked pools: %w", err)
	}
	out := make([]poolstats.TrackedPool, 0, len(rows))
	for _, r := range rows {
		p, ok := pool.New(common.HexToAddress(r.Token0), common.HexToAddress(r.Token1), pool.Venue(r.Venue))
		if !ok {
			continue
		}
		tp := poolstats.TrackedPool{Pool: p}
		if r.PositionIDSet {
			pid := r.PositionID
			tp.PositionID = &pid
		}
		out = append(out, tp)
	}
	return out, nil
}

func (s *PoolStatsStore) SavePool(tp poolstats.TrackedPool) error {
	rec := TrackedPoolRecord{
		PoolID: tp.Pool.ID(),
		Token0: tp.Pool.Token0.Hex(),
		Token1: tp.Pool.Token1.Hex(),
		Venue:  int(tp.Pool.Venue),
	}
	if tp.PositionID != nil {
		rec.PositionIDSet = true
		rec.PositionID = *tp.PositionID
	}
	if err := s.db.conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pool_id"}},
		UpdateAll: true,
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to upsert tracked pool: %w", err)
	}
	return nil
}

func (s *PoolStatsStore) DeletePool(poolID string) error {
	if err := s.db.conn.Where("pool_id = ?", poolID).Delete(&TrackedPoolRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete tracked pool: %w", err)
	}
	return nil
}

func (s *PoolStatsStore) AppendSnapshot(snap poolstats.Snapshot) error {
	row := PoolSnapshotRecord{
		PoolID:       snap.PoolID,
		TimestampSec: snap.TimestampSec,
		Token0Amount: bigIntToString(snap.Token0Amount),
		Token1Amount: bigIntToString(snap.Token1Amount),
		USDAmount0:   bigIntToString(snap.USDAmount0),
		USDAmount1:   bigIntToString(snap.USDAmount1),
		TVL:          bigIntToString(snap.TVL),
	}
	if err := s.db.conn.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append pool snapshot: %w", err)
	}
	return nil
}

func (s *PoolStatsStore) Snapshots(poolID string) ([]poolstats.Snapshot, error) {
	var rows []PoolSnapshotRecord
	if err := s.db.conn.Where("pool_id = ?", poolID).Order("timestamp_sec ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load pool snapshots: %w", err)
	}
	out := make([]poolstats.Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, poolstats.Snapshot{
			PoolID:       r.PoolID,
			TimestampSec: r.TimestampSec,
			Token0Amount: stringToBigInt(r.Token0Amount),
			Token1Amount: stringToBigInt(r.Token1Amount),
			USDAmount0:   stringToBigInt(r.USDAmount0),
			USDAmount1:   stringToBigInt(r.USDAmount1),
			TVL:          stringToBigInt(r.TVL),
		})
	}
	return out, nil
}
