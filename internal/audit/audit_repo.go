package audit

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=audit_repo.go -destination=mock/audit_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, page, limit int) ([]AuditLog, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, page, limit int) ([]AuditLog, int64, error) {
	var (
		logs  []AuditLog
		total int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.
		Order("occurred_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
