package outbox

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxAttempts is how many publish failures an event tolerates before it is parked as failed.
const MaxAttempts = 10

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

type GormStore struct {
	log *slog.Logger
	db  *gorm.DB
}

func NewGormStore(log *slog.Logger, db *gorm.DB) *GormStore {
	return &GormStore{log: log, db: db}
}

// LockBatch claims pending events, and in-progress events whose lease ran out, for relayID.
func (s *GormStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	var events []Event
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND lease_until < ?)", StatusPending, StatusInProgress, now).
			Order("id").
			Limit(batchSize).
			Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(events))
		for _, ev := range events {
			ids = append(ids, ev.ID)
		}
		leaseUntil := now.Add(lease)
		return tx.Model(&Event{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":      StatusInProgress,
			"relay_id":    relayID,
			"lease_until": leaseUntil,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Event{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": StatusSent, "lease_until": nil}).Error
}

// MarkFailed returns the event to pending for another attempt, or parks it once MaxAttempts is reached.
func (s *GormStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return s.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      gorm.Expr("CASE WHEN retry_count + 1 >= ? THEN ? ELSE ? END", MaxAttempts, StatusFailed, StatusPending),
		"retry_count": gorm.Expr("retry_count + 1"),
		"last_error":  errMsg,
		"lease_until": nil,
	}).Error
}
