package timerecord

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=timerecord_repo.go -destination=mock/timerecord_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *TimeRecord) error
	UpdateFields(ctx context.Context, r *TimeRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*TimeRecord, error)
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*TimeRecord, error)
	ListByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]TimeRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]TimeRecord, error)
	ReplaceBreaks(ctx context.Context, recordID uuid.UUID, breaks []BreakInterval) error
	FindOpenBreak(ctx context.Context, recordID uuid.UUID) (*BreakInterval, error)
	CreateBreak(ctx context.Context, b *BreakInterval) error
	CloseBreak(ctx context.Context, b *BreakInterval) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn runs statements on the bound transaction when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func orderedBreaks(db *gorm.DB) *gorm.DB {
	return db.Order("start_time ASC")
}

func (r *repository) Create(ctx context.Context, rec *TimeRecord) error {
	return r.conn(ctx).Create(rec).Error
}

// UpdateFields writes arrival, departure and note. Breaks are untouched.
func (r *repository) UpdateFields(ctx context.Context, rec *TimeRecord) error {
	return r.conn(ctx).
		Model(rec).
		Updates(map[string]any{
			"arrival_time":   rec.ArrivalTime,
			"departure_time": rec.DepartureTime,
			"note":           rec.Note,
			"updated_at":     time.Now(),
		}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*TimeRecord, error) {
	var rec TimeRecord
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*TimeRecord, error) {
	var rec TimeRecord
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Where("user_id = ?", userID).
		Where("work_date = ?", date.Format(DateLayout)).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) ListByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]TimeRecord, error) {
	var rows []TimeRecord
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Where("user_id = ?", userID).
		Where("work_date BETWEEN ? AND ?", from.Format(DateLayout), to.Format(DateLayout)).
		Order("work_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByDate(ctx context.Context, date time.Time) ([]TimeRecord, error) {
	var rows []TimeRecord
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Where("work_date = ?", date.Format(DateLayout)).
		Find(&rows).Error
	return rows, err
}

// ReplaceBreaks deletes every interval of the record and inserts breaks.
func (r *repository) ReplaceBreaks(ctx context.Context, recordID uuid.UUID, breaks []BreakInterval) error {
	db := r.conn(ctx)
	if err := db.Where("time_record_id = ?", recordID).Delete(&BreakInterval{}).Error; err != nil {
		return err
	}
	if len(breaks) == 0 {
		return nil
	}
	for i := range breaks {
		breaks[i].TimeRecordID = recordID
		if breaks[i].ID == uuid.Nil {
			breaks[i].ID = uuid.New()
		}
	}
	return db.Create(&breaks).Error
}

func (r *repository) FindOpenBreak(ctx context.Context, recordID uuid.UUID) (*BreakInterval, error) {
	var b BreakInterval
	err := r.conn(ctx).
		Where("time_record_id = ?", recordID).
		Where("end_time IS NULL").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) CreateBreak(ctx context.Context, b *BreakInterval) error {
	return r.conn(ctx).Create(b).Error
}

// CloseBreak sets end_time only if the interval is still open, so two
// concurrent end-break calls cannot both succeed.
func (r *repository) CloseBreak(ctx context.Context, b *BreakInterval) error {
	res := r.conn(ctx).
		Model(&BreakInterval{}).
		Where("id = ?", b.ID).
		Where("end_time IS NULL").
		Update("end_time", b.EndTime)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
