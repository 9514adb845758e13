// Package audit persists every drained domain event to a relational
// audit log. The log is append-only; nothing in the core reads it
// back.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fundedlabs/propcore/internal/domain"
)

// Config selects the audit database.
type Config struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// EventRecord is one row of the audit log.
type EventRecord struct {
	ID          uint      `gorm:"primaryKey"`
	EventID     string    `gorm:"size:36;uniqueIndex"`
	EventType   string    `gorm:"size:64;index"`
	ChallengeID string    `gorm:"size:36;index"`
	Payload     string    `gorm:"type:text"`
	OccurredAt  time.Time `gorm:"index"`
	CreatedAt   time.Time
}

func (EventRecord) TableName() string { return "domain_events" }

// Store appends domain events to the audit table.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database and migrates the audit
// table.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "propcore_audit.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("audit: unsupported driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Publish writes the batch in one transaction. The unique event ID
// index makes redelivered batches idempotent.
func (s *Store) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]EventRecord, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("audit: marshal %s event: %w", e.EventType(), err)
		}
		records = append(records, EventRecord{
			EventID:     e.Identity().String(),
			EventType:   string(e.EventType()),
			ChallengeID: e.AggregateID().String(),
			Payload:     string(payload),
			OccurredAt:  e.OccurredAt(),
		})
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("audit: append %d events: %w", len(records), err)
	}
	return nil
}

// Events returns the audit trail for a challenge, oldest first.
func (s *Store) Events(ctx context.Context, challengeID string) ([]EventRecord, error) {
	var records []EventRecord
	err := s.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("occurred_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("audit: load events for %s: %w", challengeID, err)
	}
	return records, nil
}
