package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/events"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=audit_service.go -destination=mock/audit_service_mock.go -package=mock
type Service interface {
	// Record stores event under eventKey. A key seen before is skipped and
	// reported with recorded=false.
	Record(ctx context.Context, eventKey string, event events.CorrectionLifecycleEvent) (recorded bool, err error)
	List(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("audit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Record(ctx context.Context, eventKey string, event events.CorrectionLifecycleEvent) (bool, error) {
	details, err := json.Marshal(event)
	if err != nil {
		return false, err
	}

	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	entry := &AuditLog{
		ID:           uuid.New(),
		EventKey:     eventKey,
		Action:       event.EventType,
		ActorID:      parseOptionalID(event.ActorID),
		ActorRole:    event.ActorRole,
		UserID:       parseOptionalID(event.UserID),
		TimeRecordID: parseOptionalID(event.TimeRecordID),
		CorrectionID: parseOptionalID(event.CorrectionID),
		WorkDate:     event.WorkDate,
		Details:      string(details),
		OccurredAt:   occurred,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if timerecord.IsUniqueViolation(err, ConstraintEventKey) {
			s.logger.Warn("audit event already recorded", zap.String("event_key", eventKey))
			return false, nil
		}
		s.logger.Error("record audit event failed", zap.String("event_key", eventKey), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (s *service) List(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		res[i] = AuditLogResponse{
			ID:           l.ID.String(),
			Action:       l.Action,
			ActorID:      idString(l.ActorID),
			ActorRole:    l.ActorRole,
			UserID:       idString(l.UserID),
			TimeRecordID: idString(l.TimeRecordID),
			CorrectionID: idString(l.CorrectionID),
			WorkDate:     l.WorkDate,
			Details:      l.Details,
			OccurredAt:   l.OccurredAt.Format(time.RFC3339),
		}
	}
	return res, total, nil
}

func parseOptionalID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
