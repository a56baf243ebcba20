package timerecord

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConstraintUserDate  = "uq_time_records_user_date"
	ConstraintOpenBreak = "uq_break_intervals_open"
)

// TimeRecord is one user's attendance for one calendar date. Clock times are
// zero padded HH:MM strings in the office timezone; nil means not recorded.
type TimeRecord struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_time_records_user_date,priority:1"`
	WorkDate      time.Time       `gorm:"column:work_date;type:date;not null;uniqueIndex:uq_time_records_user_date,priority:2;index"`
	ArrivalTime   *string         `gorm:"column:arrival_time;type:varchar(5)"`
	DepartureTime *string         `gorm:"column:departure_time;type:varchar(5)"`
	Note          *string         `gorm:"column:note;type:text"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
	Breaks        []BreakInterval `gorm:"foreignKey:TimeRecordID;constraint:OnDelete:CASCADE"`
}

func (TimeRecord) TableName() string {
	return "time_records"
}

// OpenBreak returns the interval that has not been closed yet, if any.
func (r *TimeRecord) OpenBreak() *BreakInterval {
	for i := range r.Breaks {
		if r.Breaks[i].IsOpen() {
			return &r.Breaks[i]
		}
	}
	return nil
}

// BreakInterval belongs to a TimeRecord. At most one per record may be open;
// the partial unique index uq_break_intervals_open enforces it in storage.
type BreakInterval struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TimeRecordID uuid.UUID `gorm:"column:time_record_id;type:uuid;not null;index"`
	StartTime    string    `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime      *string   `gorm:"column:end_time;type:varchar(5)"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (BreakInterval) TableName() string {
	return "break_intervals"
}

func (b BreakInterval) IsOpen() bool {
	return b.EndTime == nil
}
