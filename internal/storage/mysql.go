package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"user-events/internal/event"
	"user-events/pkg/logger"
)

// EventArchive persists consumed events to MySQL as a write-behind sink.
// The query path never reads it; failures here are the consumer's to log
// and ignore.
type EventArchive struct {
	db *sql.DB
}

func NewEventArchive(dsn string) (*EventArchive, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	// tune pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	logger.Get().Infow("event archive initialized", "dsn", dsn)
	return &EventArchive{db: db}, nil
}

func (a *EventArchive) DB() *sql.DB {
	return a.db
}

func (a *EventArchive) Close() error {
	return a.db.Close()
}

// Store inserts one event. The consumer applies records one at a time, so
// there is no batching here.
func (a *EventArchive) Store(ctx context.Context, ev event.UserEvent) error {
	log := logger.Get().With("component", "event_archive")

	dataBytes, err := json.Marshal(ev.Data)
	if err != nil {
		log.Errorw("failed to marshal event data",
			"user_id", ev.UserID,
			"error", err,
		)
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO user_events (user_id, type, timestamp, data)
		VALUES (?, ?, ?, ?)
	`, ev.UserID, ev.Type, ev.Timestamp, string(dataBytes))
	if err != nil {
		log.Errorw("insert failed",
			"user_id", ev.UserID,
			"type", ev.Type,
			"error", err,
		)
		return fmt.Errorf("insert failed: %w", err)
	}

	log.Debugw("event archived",
		"user_id", ev.UserID,
		"type", ev.Type,
	)
	return nil
}
