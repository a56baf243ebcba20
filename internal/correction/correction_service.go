package correction

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	correctionerrors "github.com/yusuke-yano-01/Timelog/internal/correction/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/events"
	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/shared/contextutil"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/user"
	usererrors "github.com/yusuke-yano-01/Timelog/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserLookup resolves the owner of an edit made by an administrator.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

//go:generate mockgen -source=correction_service.go -destination=mock/correction_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actor domain.Actor, req SubmitRequest) (SubmitResponse, error)
	Approve(ctx context.Context, actor domain.Actor, id string) (CorrectionResponse, error)
	List(ctx context.Context, actor domain.Actor, status string) ([]CorrectionResponse, error)
	GetByID(ctx context.Context, actor domain.Actor, id string) (CorrectionResponse, error)
}

type Deps struct {
	DB          *sql.DB
	Records     timerecord.Repository
	Corrections Repository
	Users       UserLookup
	Outbox      kafka.OutboxRepository
	Clock       clock.Clock
	Cache       timerecord.MonthInvalidator
}

type service struct {
	db          *sql.DB
	records     timerecord.Repository
	corrections Repository
	users       UserLookup
	outbox      kafka.OutboxRepository
	clock       clock.Clock
	cache       timerecord.MonthInvalidator
	logger      *zap.Logger
}

func NewService(deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("correction.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("correction.service")
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &service{
		db:          deps.DB,
		records:     deps.Records,
		corrections: deps.Corrections,
		users:       deps.Users,
		outbox:      deps.Outbox,
		clock:       clk,
		cache:       timerecord.OrNoop(deps.Cache),
		logger:      l,
	}
}

func (s *service) Submit(ctx context.Context, actor domain.Actor, req SubmitRequest) (SubmitResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("actor_id", actor.UserID.String()),
		zap.String("actor_role", actor.Role),
	)
	log.Debug("submit correction requested",
		zap.String("time_record_id", req.TimeRecordID),
		zap.String("work_date", req.WorkDate),
	)

	proposal, err := Validate(actor.Role, req, s.clock.Now().Location())
	if err != nil {
		log.Warn("submit correction validation failed", zap.Error(err))
		return SubmitResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("submit correction begin tx failed", zap.Error(err))
		return SubmitResponse{}, err
	}
	defer tx.Rollback()

	store := Store{Records: s.records.WithTx(tx), Corrections: s.corrections.WithTx(tx)}

	target, rec, err := s.resolveTarget(ctx, store.Records, actor, req, proposal.WorkDate)
	if err != nil {
		log.Warn("submit correction target rejected", zap.Error(err))
		return SubmitResponse{}, err
	}

	outcome, err := ForActor(actor).Apply(ctx, store, Draft{UserID: target, Record: rec, Proposal: proposal})
	if err != nil {
		if timerecord.IsUniqueViolation(err, timerecord.ConstraintUserDate) {
			err = correctionerrors.ErrConcurrentEdit
		}
		log.Error("submit correction apply failed", zap.String("user_id", target.String()), zap.Error(err))
		return SubmitResponse{}, err
	}

	event := events.CorrectionLifecycleEvent{
		EventType:    events.TimeRecordOverwritten,
		RequestID:    contextutil.GetRequestID(ctx),
		ActorID:      actor.UserID.String(),
		ActorRole:    actor.Role,
		UserID:       target.String(),
		TimeRecordID: outcome.Record.ID.String(),
		WorkDate:     outcome.Record.WorkDate.Format(timerecord.DateLayout),
		OccurredAt:   s.clock.Now().UTC(),
	}
	aggregateType, aggregateID := "time_record", outcome.Record.ID.String()
	if outcome.Request != nil {
		event.EventType = events.CorrectionSubmitted
		event.CorrectionID = outcome.Request.ID.String()
		event.Status = outcome.Request.Status
		aggregateType, aggregateID = "correction_request", outcome.Request.ID.String()
	}
	if err := s.enqueue(ctx, tx, aggregateType, aggregateID, event); err != nil {
		log.Error("submit correction outbox persist failed", zap.Error(err))
		return SubmitResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("submit correction commit failed", zap.Error(err))
		return SubmitResponse{}, err
	}
	s.cache.InvalidateMonth(ctx, target, outcome.Record.WorkDate)

	resp := SubmitResponse{Result: SubmitPending, Record: timerecord.MapToResponse(*outcome.Record)}
	if outcome.Applied {
		resp.Result = SubmitApplied
	}
	fields := []zap.Field{
		zap.String("user_id", target.String()),
		zap.String("time_record_id", outcome.Record.ID.String()),
		zap.String("result", resp.Result),
	}
	if outcome.Request != nil {
		c := ToResponse(*outcome.Request)
		resp.Correction = &c
		fields = append(fields, zap.String("correction_id", c.ID))
	}
	if outcome.Removed != nil {
		fields = append(fields, zap.String("removed_correction_id", outcome.Removed.ID.String()))
	}
	log.Info("submit correction success", fields...)
	return resp, nil
}

// resolveTarget works out whose record is being edited and loads it. Staff may
// only target themselves; administrators must name a staff user or a record.
func (s *service) resolveTarget(
	ctx context.Context,
	records timerecord.Repository,
	actor domain.Actor,
	req SubmitRequest,
	date time.Time,
) (uuid.UUID, *timerecord.TimeRecord, error) {
	var named *uuid.UUID
	if strings.TrimSpace(req.UserID) != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return uuid.Nil, nil, usererrors.ErrInvalidUserID
		}
		if !actor.IsAdmin() && !actor.Owns(id) {
			return uuid.Nil, nil, correctionerrors.ErrForbidden
		}
		named = &id
	}

	if strings.TrimSpace(req.TimeRecordID) != "" {
		id, err := uuid.Parse(req.TimeRecordID)
		if err != nil {
			return uuid.Nil, nil, correctionerrors.ErrTimeRecordNotFound
		}
		rec, err := records.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, nil, correctionerrors.ErrTimeRecordNotFound
			}
			return uuid.Nil, nil, err
		}
		if (named != nil && *named != rec.UserID) || (!actor.IsAdmin() && !actor.Owns(rec.UserID)) {
			return uuid.Nil, nil, correctionerrors.ErrForbidden
		}
		if !timerecord.SameDate(rec.WorkDate, date) {
			return uuid.Nil, nil, correctionerrors.ErrDateMismatch
		}
		return rec.UserID, rec, nil
	}

	target := actor.UserID
	if named != nil {
		target = *named
	} else if actor.IsAdmin() {
		return uuid.Nil, nil, correctionerrors.ErrTargetRequired
	}

	if actor.IsAdmin() {
		u, err := s.users.FindByID(ctx, target.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, nil, usererrors.ErrUserNotFound
			}
			return uuid.Nil, nil, err
		}
		if u.Role == domain.RoleAdmin {
			return uuid.Nil, nil, correctionerrors.ErrTargetNotStaff
		}
	}

	rec, err := records.FindByUserAndDate(ctx, target, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return target, nil, nil
		}
		return uuid.Nil, nil, err
	}
	return target, rec, nil
}

func (s *service) Approve(ctx context.Context, actor domain.Actor, id string) (CorrectionResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("actor_id", actor.UserID.String()),
		zap.String("correction_id", id),
	)
	log.Debug("approve correction requested")

	if !actor.IsAdmin() {
		log.Warn("approve correction rejected: not admin")
		return CorrectionResponse{}, correctionerrors.ErrApproveForbidden
	}
	reqID, err := uuid.Parse(id)
	if err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidCorrectionID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("approve correction begin tx failed", zap.Error(err))
		return CorrectionResponse{}, err
	}
	defer tx.Rollback()

	corrections := s.corrections.WithTx(tx)
	records := s.records.WithTx(tx)

	req, err := corrections.FindByIDForUpdate(ctx, reqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CorrectionResponse{}, correctionerrors.ErrCorrectionNotFound
		}
		return CorrectionResponse{}, err
	}
	if !req.IsPending() {
		log.Warn("approve correction rejected: already approved")
		return CorrectionResponse{}, correctionerrors.ErrAlreadyApproved
	}

	now := s.clock.Now()
	affected, err := corrections.MarkApproved(ctx, req.ID, actor.UserID, now)
	if err != nil {
		log.Error("approve correction mark failed", zap.Error(err))
		return CorrectionResponse{}, err
	}
	if affected == 0 {
		return CorrectionResponse{}, correctionerrors.ErrAlreadyApproved
	}

	rec, err := records.FindByID(ctx, req.TimeRecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CorrectionResponse{}, correctionerrors.ErrTimeRecordNotFound
		}
		return CorrectionResponse{}, err
	}
	if err := writeRecord(ctx, records, rec, proposalOf(*req)); err != nil {
		log.Error("approve correction record update failed", zap.Error(err))
		return CorrectionResponse{}, err
	}

	req.Status = StatusApproved
	req.ApprovedBy = &actor.UserID
	req.ApprovedAt = &now

	if err := s.enqueue(ctx, tx, "correction_request", req.ID.String(), events.CorrectionLifecycleEvent{
		EventType:    events.CorrectionApproved,
		RequestID:    contextutil.GetRequestID(ctx),
		ActorID:      actor.UserID.String(),
		ActorRole:    actor.Role,
		UserID:       req.UserID.String(),
		TimeRecordID: req.TimeRecordID.String(),
		CorrectionID: req.ID.String(),
		WorkDate:     req.WorkDate.Format(timerecord.DateLayout),
		Status:       req.Status,
		OccurredAt:   now.UTC(),
	}); err != nil {
		log.Error("approve correction outbox persist failed", zap.Error(err))
		return CorrectionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("approve correction commit failed", zap.Error(err))
		return CorrectionResponse{}, err
	}
	s.cache.InvalidateMonth(ctx, req.UserID, req.WorkDate)

	log.Info("approve correction success",
		zap.String("user_id", req.UserID.String()),
		zap.String("time_record_id", req.TimeRecordID.String()),
	)
	return ToResponse(*req), nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, status string) ([]CorrectionResponse, error) {
	filter := ListFilter{}
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "":
	case StatusPending:
		filter.Status = StatusPending
	case StatusApproved:
		filter.Status = StatusApproved
	default:
		return nil, correctionerrors.ErrInvalidStatus
	}
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}

	rows, err := s.corrections.List(ctx, filter)
	if err != nil {
		s.logger.Error("list corrections failed", zap.Error(err))
		return nil, err
	}
	res := make([]CorrectionResponse, len(rows))
	for i, r := range rows {
		res[i] = ToResponse(r)
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id string) (CorrectionResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidCorrectionID
	}
	req, err := s.corrections.FindByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CorrectionResponse{}, correctionerrors.ErrCorrectionNotFound
		}
		return CorrectionResponse{}, err
	}
	if !actor.IsAdmin() && !actor.Owns(req.UserID) {
		return CorrectionResponse{}, apperror.ErrForbidden
	}
	return ToResponse(*req), nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID string, event events.CorrectionLifecycleEvent) error {
	if s.outbox == nil {
		return nil
	}
	row, err := kafka.NewOutboxEvent(event.RequestID, aggregateType, aggregateID, event.EventType, events.CorrectionLifecycleTopic, event)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, row)
}

func proposalOf(req CorrectionRequest) Proposal {
	p := Proposal{
		WorkDate:  req.WorkDate,
		Arrival:   req.ArrivalTime,
		Departure: req.DepartureTime,
		Note:      req.Note,
		Breaks:    make([]ProposedBreak, len(req.Breaks)),
	}
	for i, b := range req.Breaks {
		p.Breaks[i] = ProposedBreak{Start: b.StartTime, End: b.EndTime}
	}
	return p
}
