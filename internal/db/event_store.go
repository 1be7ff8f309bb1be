package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liquidops/apyvault/pkg/eventlog"
)

// EventRecordRow is the GORM model for an append-only eventlog.Record
// (§3.1/§7). Fields is stored as a JSON blob since its key set varies per
// event type, the same "variant payload as opaque column" move
// transaction_recorder.go makes for CurrentAssetSnapshot's four token
// amounts kept as separate typed columns instead — here the payload
// shape itself varies, so JSON is the fitting encoding.
type EventRecordRow struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement"`
	CorrelationID string  `gorm:"type:varchar(64);index"`
	Event         string  `gorm:"type:varchar(64);index"`
	TimestampNS   int64
	User          string  `gorm:"type:varchar(64);index"`
	StrategyID    *uint64 `gorm:"index"`
	FieldsJSON    string  `gorm:"type:text"`
}

func (EventRecordRow) TableName() string { return "event_records" }

// EventStore implements eventlog.Store over MySQL.
type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) *EventStore { return &EventStore{db: db} }

func (s *EventStore) Append(ctx context.Context, rec eventlog.Record) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode event fields: %w", err)
	}
	row := EventRecordRow{
		CorrelationID: rec.CorrelationID,
		Event:         string(rec.Event),
		TimestampNS:   rec.TimestampNS,
		User:          rec.User,
		StrategyID:    rec.StrategyID,
		FieldsJSON:    string(fieldsJSON),
	}
	if err := s.db.conn.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append event record: %w", err)
	}
	return nil
}

// Page implements eventlog.Store's paginated, optionally-filtered read,
// mirroring InMemoryStore.Page's search-then-order-then-slice semantics
// against a SQL query instead of an in-process slice.
func (s *EventStore) Page(ctx context.Context, page, pageSize int, descending bool, search string) ([]eventlog.Record, error) {
	q := s.db.conn.WithContext(ctx).Model(&EventRecordRow{})
	if search != "" {
		q = q.Where("event = ? OR user = ?", search, search)
	}
	if descending {
		q = q.Order("id DESC")
	} else {
		q = q.Order("id ASC")
	}
	q = q.Offset(page * pageSize).Limit(pageSize)

	var rows []EventRecordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to page event records: %w", err)
	}

	out := make([]eventlog.Record, 0, len(rows))
	for _, r := range rows {
		var fields map[string]string
		if r.FieldsJSON != "" {
			_ = json.Unmarshal([]byte(r.FieldsJSON), &fields)
		}
		out = append(out, eventlog.Record{
			ID:            r.ID,
			CorrelationID: r.CorrelationID,
			Event:         eventlog.Event(r.Event),
			TimestampNS:   r.TimestampNS,
			User:          r.User,
			StrategyID:    r.StrategyID,
			Fields:        fields,
		})
	}
	return out, nil
}
