package correction

import (
	"context"
	"database/sql"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	Status string
	UserID *uuid.UUID
}

//go:generate mockgen -source=correction_repo.go -destination=mock/correction_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, c *CorrectionRequest) error
	UpdateProposal(ctx context.Context, c *CorrectionRequest) error
	ReplaceBreaks(ctx context.Context, requestID uuid.UUID, breaks []CorrectionBreak) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteApprovedByTimeRecord(ctx context.Context, recordID uuid.UUID) (int64, error)
	MarkApproved(ctx context.Context, id, approver uuid.UUID, at time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*CorrectionRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CorrectionRequest, error)
	FindLatestByTimeRecord(ctx context.Context, recordID uuid.UUID) (*CorrectionRequest, error)
	FindPendingByTimeRecord(ctx context.Context, recordID uuid.UUID) (*CorrectionRequest, error)
	List(ctx context.Context, filter ListFilter) ([]CorrectionRequest, error)
	ListPendingByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]CorrectionRequest, error)
	ListPendingByDate(ctx context.Context, date time.Time) ([]CorrectionRequest, error)
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

// Create inserts the request together with its breaks.
func (r *repository) Create(ctx context.Context, c *CorrectionRequest) error {
	return r.conn(ctx).Omit("User", "TimeRecord").Create(c).Error
}

func (r *repository) UpdateProposal(ctx context.Context, c *CorrectionRequest) error {
	return r.conn(ctx).
		Model(&CorrectionRequest{ID: c.ID}).
		Updates(map[string]any{
			"arrival_time":   c.ArrivalTime,
			"departure_time": c.DepartureTime,
			"note":           c.Note,
			"updated_at":     time.Now(),
		}).Error
}

func (r *repository) ReplaceBreaks(ctx context.Context, requestID uuid.UUID, breaks []CorrectionBreak) error {
	db := r.conn(ctx)
	if err := db.Where("correction_request_id = ?", requestID).Delete(&CorrectionBreak{}).Error; err != nil {
		return err
	}
	if len(breaks) == 0 {
		return nil
	}
	for i := range breaks {
		breaks[i].CorrectionRequestID = requestID
		if breaks[i].ID == uuid.Nil {
			breaks[i].ID = uuid.New()
		}
	}
	return db.Create(&breaks).Error
}

// Delete removes the request; correction_breaks rows go with it by cascade.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Delete(&CorrectionRequest{}, "id = ?", id).Error
}

func (r *repository) DeleteApprovedByTimeRecord(ctx context.Context, recordID uuid.UUID) (int64, error) {
	res := r.conn(ctx).
		Where("time_record_id = ? AND status = ?", recordID, StatusApproved).
		Delete(&CorrectionRequest{})
	return res.RowsAffected, res.Error
}

// MarkApproved flips a PENDING request to APPROVED. It affects zero rows when
// the request was already approved.
func (r *repository) MarkApproved(ctx context.Context, id, approver uuid.UUID, at time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&CorrectionRequest{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":      StatusApproved,
			"approved_by": approver,
			"approved_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*CorrectionRequest, error) {
	var c CorrectionRequest
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Preload("User").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CorrectionRequest, error) {
	var c CorrectionRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Breaks", orderedBreaks).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindLatestByTimeRecord(ctx context.Context, recordID uuid.UUID) (*CorrectionRequest, error) {
	var c CorrectionRequest
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Where("time_record_id = ?", recordID).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindPendingByTimeRecord(ctx context.Context, recordID uuid.UUID) (*CorrectionRequest, error) {
	var c CorrectionRequest
	err := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Where("time_record_id = ? AND status = ?", recordID, StatusPending).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns requests newest work date first. Requests of admins are never
// listed since admins edit records directly.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]CorrectionRequest, error) {
	db := r.conn(ctx).
		Preload("Breaks", orderedBreaks).
		Preload("User").
		Joins("JOIN users ON users.id = correction_requests.user_id").
		Where("users.role <> ?", domain.RoleAdmin)
	if filter.Status != "" {
		db = db.Where("correction_requests.status = ?", filter.Status)
	}
	if filter.UserID != nil {
		db = db.Where("correction_requests.user_id = ?", *filter.UserID)
	}

	var out []CorrectionRequest
	err := db.
		Order("correction_requests.work_date DESC").
		Order("correction_requests.created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListPendingByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]CorrectionRequest, error) {
	var out []CorrectionRequest
	err := r.conn(ctx).
		Where("user_id = ? AND status = ?", userID, StatusPending).
		Where("work_date BETWEEN ? AND ?", from.Format(timerecord.DateLayout), to.Format(timerecord.DateLayout)).
		Find(&out).Error
	return out, err
}

func (r *repository) ListPendingByDate(ctx context.Context, date time.Time) ([]CorrectionRequest, error) {
	var out []CorrectionRequest
	err := r.conn(ctx).
		Where("work_date = ? AND status = ?", date.Format(timerecord.DateLayout), StatusPending).
		Find(&out).Error
	return out, err
}
