// Package db implements the GORM/MySQL persistence layer backing every
// service's Store interface, generalized from transaction_recorder.go's
// AssetSnapshotRecord pattern: money fields are stored as decimal strings
// in a varchar column (MySQL has no native big-integer type wide enough
// for 256-bit token amounts), and every record keeps its own
// auto-migrated table.
package db

import (
	"fmt"
	"math/big"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the shared GORM connection every store in this package opens
// its queries against; one MySQL instance backs the whole deployment.
type DB struct {
	conn *gorm.DB
}

// Open connects to MySQL and auto-migrates every table this package
// owns. dsn format: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local".
func Open(dsn string) (*DB, error) {
	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	if err := conn.AutoMigrate(
		&StrategyStateRecord{},
		&StrategyUserShareRecord{},
		&EventRecordRow{},
		&TrackedPoolRecord{},
		&PoolSnapshotRecord{},
		&StrategyBootstrapRecord{},
		&StrategySnapshotRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// OpenWithConn wraps an already-open GORM connection, migrating this
// package's tables onto it, for a caller that opens its own connection
// (for example sqlite or sqlmock) instead of Open's MySQL DSN.
func OpenWithConn(conn *gorm.DB) (*DB, error) {
	if err := conn.AutoMigrate(
		&StrategyStateRecord{},
		&StrategyUserShareRecord{},
		&EventRecordRow{},
		&TrackedPoolRecord{},
		&PoolSnapshotRecord{},
		&StrategyBootstrapRecord{},
		&StrategySnapshotRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	sqlDB, err := d.conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Close()
}

// bigIntToString safely converts *big.Int to string, nil treated as zero.
func bigIntToString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// stringToBigInt parses a decimal string back into *big.Int, empty/invalid
// treated as zero so a freshly migrated row never yields a nil amount.
func stringToBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
