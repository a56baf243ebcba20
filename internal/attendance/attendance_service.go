package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	attendanceerrors "github.com/yusuke-yano-01/Timelog/internal/attendance/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	Today(ctx context.Context, actor domain.Actor) (TodayResponse, error)
	ClockIn(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error)
	ClockOut(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error)
	StartBreak(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error)
	EndBreak(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error)
}

type service struct {
	db     *sql.DB
	repo   timerecord.Repository
	clock  clock.Clock
	cache  timerecord.MonthInvalidator
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo timerecord.Repository,
	clk clock.Clock,
	cache timerecord.MonthInvalidator,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &service{
		db:     db,
		repo:   repo,
		clock:  clk,
		cache:  timerecord.OrNoop(cache),
		logger: l,
	}
}

func (s *service) Today(ctx context.Context, actor domain.Actor) (TodayResponse, error) {
	if actor.IsAdmin() {
		return TodayResponse{}, attendanceerrors.ErrStaffOnly
	}

	now := s.clock.Now()
	resp := TodayResponse{
		Date: now.Format(timerecord.DateLayout),
		Now:  timerecord.FormatClock(now),
	}

	rec, err := s.findToday(ctx, s.repo, actor.UserID, now)
	if err != nil {
		s.logger.Error("load today record failed", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		return TodayResponse{}, err
	}
	resp.Status = StatusOf(rec)
	if rec != nil {
		r := timerecord.MapToResponse(*rec)
		resp.Record = &r
	}
	return resp, nil
}

func (s *service) ClockIn(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error) {
	if actor.IsAdmin() {
		return timerecord.TimeRecordResponse{}, attendanceerrors.ErrStaffOnly
	}
	s.logger.Debug("clock in requested", zap.String("user_id", actor.UserID.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.clock.Now()

	existing, err := s.findToday(ctx, qtx, actor.UserID, now)
	if err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	if existing != nil {
		s.logger.Warn("clock in rejected: record exists", zap.String("user_id", actor.UserID.String()))
		return timerecord.TimeRecordResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	arrival := timerecord.FormatClock(now)
	rec := &timerecord.TimeRecord{
		ID:          uuid.New(),
		UserID:      actor.UserID,
		WorkDate:    clock.DateOf(now),
		ArrivalTime: &arrival,
	}
	if err := qtx.Create(ctx, rec); err != nil {
		// A concurrent clock-in won the (user, date) unique index.
		if timerecord.IsUniqueViolation(err, timerecord.ConstraintUserDate) {
			return timerecord.TimeRecordResponse{}, attendanceerrors.ErrAlreadyClockedIn
		}
		s.logger.Error("create time record failed", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		return timerecord.TimeRecordResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	s.cache.InvalidateMonth(ctx, actor.UserID, now)

	s.logger.Info("clocked in",
		zap.String("user_id", actor.UserID.String()),
		zap.String("time_record_id", rec.ID.String()),
		zap.String("arrival", arrival),
	)
	return timerecord.MapToResponse(*rec), nil
}

func (s *service) ClockOut(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error) {
	return s.mutateToday(ctx, actor, "clock out", attendanceerrors.ErrNoOpenRecord, func(qtx timerecord.Repository, rec *timerecord.TimeRecord, now time.Time) error {
		if rec.DepartureTime != nil {
			return attendanceerrors.ErrAlreadyClockedOut
		}
		departure := timerecord.FormatClock(now)
		rec.DepartureTime = &departure
		return qtx.UpdateFields(ctx, rec)
	})
}

func (s *service) StartBreak(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error) {
	return s.mutateToday(ctx, actor, "start break", attendanceerrors.ErrNoOpenRecord, func(qtx timerecord.Repository, rec *timerecord.TimeRecord, now time.Time) error {
		if rec.DepartureTime != nil {
			return attendanceerrors.ErrAlreadyClockedOut
		}
		open, err := qtx.FindOpenBreak(ctx, rec.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if open != nil {
			return attendanceerrors.ErrAlreadyOnBreak
		}

		b := timerecord.BreakInterval{
			ID:           uuid.New(),
			TimeRecordID: rec.ID,
			StartTime:    timerecord.FormatClock(now),
		}
		if err := qtx.CreateBreak(ctx, &b); err != nil {
			if timerecord.IsUniqueViolation(err, timerecord.ConstraintOpenBreak) {
				return attendanceerrors.ErrAlreadyOnBreak
			}
			return err
		}
		rec.Breaks = append(rec.Breaks, b)
		return nil
	})
}

func (s *service) EndBreak(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error) {
	return s.mutateToday(ctx, actor, "end break", attendanceerrors.ErrNotOnBreak, func(qtx timerecord.Repository, rec *timerecord.TimeRecord, now time.Time) error {
		open, err := qtx.FindOpenBreak(ctx, rec.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return attendanceerrors.ErrNotOnBreak
			}
			return err
		}

		end := timerecord.FormatClock(now)
		open.EndTime = &end
		if err := qtx.CloseBreak(ctx, open); err != nil {
			// Closed by a concurrent request between the read and the update.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return attendanceerrors.ErrNotOnBreak
			}
			return err
		}
		for i := range rec.Breaks {
			if rec.Breaks[i].ID == open.ID {
				rec.Breaks[i].EndTime = &end
			}
		}
		return nil
	})
}

// mutateToday runs fn against the actor's record for today inside one
// transaction. A missing or arrival-less record fails with missing.
func (s *service) mutateToday(
	ctx context.Context,
	actor domain.Actor,
	op string,
	missing error,
	fn func(qtx timerecord.Repository, rec *timerecord.TimeRecord, now time.Time) error,
) (timerecord.TimeRecordResponse, error) {
	if actor.IsAdmin() {
		return timerecord.TimeRecordResponse{}, attendanceerrors.ErrStaffOnly
	}
	userID := actor.UserID.String()
	s.logger.Debug(op+" requested", zap.String("user_id", userID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.clock.Now()

	rec, err := s.findToday(ctx, qtx, actor.UserID, now)
	if err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	if rec == nil || rec.ArrivalTime == nil {
		s.logger.Warn(op+" rejected: not clocked in", zap.String("user_id", userID))
		return timerecord.TimeRecordResponse{}, missing
	}

	if err := fn(qtx, rec, now); err != nil {
		if isStateConflict(err) {
			s.logger.Warn(op+" rejected", zap.String("user_id", userID), zap.Error(err))
		} else {
			s.logger.Error(op+" failed", zap.String("user_id", userID), zap.Error(err))
		}
		return timerecord.TimeRecordResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	s.cache.InvalidateMonth(ctx, actor.UserID, now)

	s.logger.Info(op,
		zap.String("user_id", userID),
		zap.String("time_record_id", rec.ID.String()),
		zap.String("at", timerecord.FormatClock(now)),
	)
	return timerecord.MapToResponse(*rec), nil
}

func (s *service) findToday(ctx context.Context, repo timerecord.Repository, userID uuid.UUID, now time.Time) (*timerecord.TimeRecord, error) {
	rec, err := repo.FindByUserAndDate(ctx, userID, clock.DateOf(now))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func isStateConflict(err error) bool {
	for _, target := range []error{
		attendanceerrors.ErrAlreadyClockedOut,
		attendanceerrors.ErrAlreadyOnBreak,
		attendanceerrors.ErrNotOnBreak,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
