package audit

import (
	"time"

	"github.com/google/uuid"
)

const ConstraintEventKey = "uq_audit_logs_event_key"

// AuditLog is one consumed lifecycle event. EventKey identifies the outbox
// row it came from so redelivered messages are recorded once.
type AuditLog struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EventKey     string     `gorm:"column:event_key;type:varchar(64);not null;uniqueIndex:uq_audit_logs_event_key"`
	Action       string     `gorm:"column:action;type:varchar(50);not null;index"`
	ActorID      *uuid.UUID `gorm:"column:actor_id;type:uuid;index"`
	ActorRole    string     `gorm:"column:actor_role;type:varchar(20)"`
	UserID       *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	TimeRecordID *uuid.UUID `gorm:"column:time_record_id;type:uuid"`
	CorrectionID *uuid.UUID `gorm:"column:correction_id;type:uuid"`
	WorkDate     string     `gorm:"column:work_date;type:varchar(10)"`
	Details      string     `gorm:"column:details;type:jsonb"`
	OccurredAt   time.Time  `gorm:"column:occurred_at;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
