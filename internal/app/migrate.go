package app

import (
	"fmt"

	"github.com/yusuke-yano-01/Timelog/internal/audit"
	"github.com/yusuke-yano-01/Timelog/internal/correction"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/user"

	"gorm.io/gorm"
)

// Partial indexes and the outbox table are outside what AutoMigrate can express.
var migrationStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + timerecord.ConstraintOpenBreak + `
		ON break_intervals (time_record_id) WHERE end_time IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + correction.ConstraintPendingPerRecord + `
		ON correction_requests (time_record_id) WHERE status = '` + correction.StatusPending + `'`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		request_id VARCHAR(64),
		aggregate_type VARCHAR(64) NOT NULL,
		aggregate_id VARCHAR(64) NOT NULL,
		event_type VARCHAR(128) NOT NULL,
		topic VARCHAR(255) NOT NULL,
		payload JSONB NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		retry_count INT NOT NULL DEFAULT 0,
		next_retry_at TIMESTAMPTZ,
		error_message TEXT,
		processed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_due
		ON outbox_events (status, next_retry_at, created_at)`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&timerecord.TimeRecord{},
		&timerecord.BreakInterval{},
		&correction.CorrectionRequest{},
		&correction.CorrectionBreak{},
		&audit.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
