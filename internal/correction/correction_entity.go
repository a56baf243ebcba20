package correction

import (
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/user"

	"github.com/google/uuid"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
)

// ConstraintPendingPerRecord is the partial unique index allowing one
// PENDING request per time record.
const ConstraintPendingPerRecord = "uq_correction_requests_pending"

// CorrectionRequest is a staff proposal to change a TimeRecord. It carries its
// own copy of the fields and breaks and only reaches the record on approval.
type CorrectionRequest struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	TimeRecordID  uuid.UUID              `gorm:"column:time_record_id;type:uuid;not null;index"`
	WorkDate      time.Time              `gorm:"column:work_date;type:date;not null"`
	ArrivalTime   *string                `gorm:"column:arrival_time;type:varchar(5)"`
	DepartureTime *string                `gorm:"column:departure_time;type:varchar(5)"`
	Note          *string                `gorm:"column:note;type:text"`
	Status        string                 `gorm:"column:status;type:varchar(20);not null;default:PENDING;index"`
	ApprovedBy    *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ApprovedAt    *time.Time             `gorm:"column:approved_at"`
	CreatedAt     time.Time              `gorm:"column:created_at"`
	UpdatedAt     time.Time              `gorm:"column:updated_at"`
	Breaks        []CorrectionBreak      `gorm:"foreignKey:CorrectionRequestID;constraint:OnDelete:CASCADE"`
	User          *user.User             `gorm:"foreignKey:UserID"`
	TimeRecord    *timerecord.TimeRecord `gorm:"foreignKey:TimeRecordID;constraint:OnDelete:CASCADE"`
}

func (CorrectionRequest) TableName() string {
	return "correction_requests"
}

func (c CorrectionRequest) IsPending() bool {
	return c.Status == StatusPending
}

type CorrectionBreak struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CorrectionRequestID uuid.UUID `gorm:"column:correction_request_id;type:uuid;not null;index"`
	StartTime           string    `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime             string    `gorm:"column:end_time;type:varchar(5);not null"`
}

func (CorrectionBreak) TableName() string {
	return "correction_breaks"
}
