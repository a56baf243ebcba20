package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/correction"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	reporterrors "github.com/yusuke-yano-01/Timelog/internal/report/errors"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/shared/contextutil"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/user"
	usererrors "github.com/yusuke-yano-01/Timelog/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserDirectory is the part of the user store reports read from.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindActiveStaff(ctx context.Context) ([]user.User, error)
}

//go:generate mockgen -source=report_service.go -destination=mock/report_service_mock.go -package=mock
type Service interface {
	Month(ctx context.Context, actor domain.Actor, q MonthQuery) (MonthReport, error)
	Day(ctx context.Context, actor domain.Actor, userID, date string) (DayDetail, error)
	Daily(ctx context.Context, actor domain.Actor, date string) (DailyReport, error)
	ExportCSV(ctx context.Context, actor domain.Actor, q MonthQuery) (Export, error)
}

type service struct {
	records     timerecord.Repository
	corrections correction.Repository
	users       UserDirectory
	clock       clock.Clock
	cache       *MonthCache
	logger      *zap.Logger
}

func NewService(
	records timerecord.Repository,
	corrections correction.Repository,
	users UserDirectory,
	clk clock.Clock,
	cache *MonthCache,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("report.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.service")
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &service{
		records:     records,
		corrections: corrections,
		users:       users,
		clock:       clk,
		cache:       cache,
		logger:      l,
	}
}

func (s *service) Month(ctx context.Context, actor domain.Actor, q MonthQuery) (MonthReport, error) {
	target, err := s.resolveUser(ctx, actor, q.UserID)
	if err != nil {
		return MonthReport{}, err
	}
	first, last, err := s.monthOf(q)
	if err != nil {
		return MonthReport{}, err
	}

	rows, err := s.monthRows(ctx, target.ID, first, last)
	if err != nil {
		return MonthReport{}, err
	}
	prev, next := neighbours(first)
	return MonthReport{
		UserID:   target.ID.String(),
		UserName: target.Name,
		Year:     first.Year(),
		Month:    int(first.Month()),
		Prev:     prev,
		Next:     next,
		Rows:     rows,
	}, nil
}

func (s *service) ExportCSV(ctx context.Context, actor domain.Actor, q MonthQuery) (Export, error) {
	report, err := s.Month(ctx, actor, q)
	if err != nil {
		return Export{}, err
	}
	data, err := EncodeCSV(report.Rows)
	if err != nil {
		s.logger.Error("encode csv failed", zap.String("user_id", report.UserID), zap.Error(err))
		return Export{}, err
	}
	contextutil.GetLogger(ctx, s.logger).Info("time log exported",
		zap.String("user_id", report.UserID),
		zap.Int("year", report.Year),
		zap.Int("month", report.Month),
	)
	return Export{
		Filename: fmt.Sprintf("timelog_%04d-%02d.csv", report.Year, report.Month),
		Data:     data,
	}, nil
}

func (s *service) monthRows(ctx context.Context, userID uuid.UUID, first, last time.Time) ([]DisplayRow, error) {
	return s.cache.Rows(ctx, userID, first, func() ([]DisplayRow, error) {
		records, err := s.records.ListByUserAndRange(ctx, userID, first, last)
		if err != nil {
			s.logger.Error("list month records failed", zap.String("user_id", userID.String()), zap.Error(err))
			return nil, err
		}
		pending, err := s.corrections.ListPendingByUserAndRange(ctx, userID, first, last)
		if err != nil {
			s.logger.Error("list month pending corrections failed", zap.String("user_id", userID.String()), zap.Error(err))
			return nil, err
		}
		days := make(map[string]bool, len(pending))
		for _, p := range pending {
			days[p.WorkDate.Format(timerecord.DateLayout)] = true
		}
		return buildMonth(first, last, records, days), nil
	})
}

func (s *service) Day(ctx context.Context, actor domain.Actor, userID, date string) (DayDetail, error) {
	target, err := s.resolveUser(ctx, actor, userID)
	if err != nil {
		return DayDetail{}, err
	}
	day, err := s.dateOf(date)
	if err != nil {
		return DayDetail{}, err
	}

	detail := DayDetail{UserID: target.ID.String(), UserName: target.Name}

	rec, err := s.records.FindByUserAndDate(ctx, target.ID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			detail.Row = BuildRow(day, nil, false)
			return detail, nil
		}
		s.logger.Error("find day record failed", zap.String("user_id", target.ID.String()), zap.Error(err))
		return DayDetail{}, err
	}

	resp := timerecord.MapToResponse(*rec)
	detail.Record = &resp

	latest, err := s.corrections.FindLatestByTimeRecord(ctx, rec.ID)
	switch {
	case err == nil:
		c := correction.ToResponse(*latest)
		detail.Correction = &c
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("find day correction failed", zap.String("time_record_id", rec.ID.String()), zap.Error(err))
		return DayDetail{}, err
	}
	detail.Row = BuildRow(day, rec, latest != nil && latest.IsPending())
	return detail, nil
}

func (s *service) Daily(ctx context.Context, actor domain.Actor, date string) (DailyReport, error) {
	if !actor.IsAdmin() {
		return DailyReport{}, reporterrors.ErrForbidden
	}
	day, err := s.dateOf(date)
	if err != nil {
		return DailyReport{}, err
	}

	staff, err := s.users.FindActiveStaff(ctx)
	if err != nil {
		s.logger.Error("list staff failed", zap.Error(err))
		return DailyReport{}, err
	}
	records, err := s.records.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("list daily records failed", zap.Error(err))
		return DailyReport{}, err
	}
	pending, err := s.corrections.ListPendingByDate(ctx, day)
	if err != nil {
		s.logger.Error("list daily pending corrections failed", zap.Error(err))
		return DailyReport{}, err
	}

	byUser := make(map[uuid.UUID]*timerecord.TimeRecord, len(records))
	for i := range records {
		byUser[records[i].UserID] = &records[i]
	}
	pendingUsers := make(map[uuid.UUID]bool, len(pending))
	for _, p := range pending {
		pendingUsers[p.UserID] = true
	}

	rows := make([]DailyRow, len(staff))
	for i, u := range staff {
		rows[i] = DailyRow{
			UserID:     u.ID.String(),
			UserName:   u.Name,
			DisplayRow: BuildRow(day, byUser[u.ID], pendingUsers[u.ID]),
		}
	}
	return DailyReport{
		Date: day.Format(timerecord.DateLayout),
		Prev: day.AddDate(0, 0, -1).Format(timerecord.DateLayout),
		Next: day.AddDate(0, 0, 1).Format(timerecord.DateLayout),
		Rows: rows,
	}, nil
}

// resolveUser returns the user whose time log is read. Staff may only read
// their own; administrators may read anyone's.
func (s *service) resolveUser(ctx context.Context, actor domain.Actor, raw string) (*user.User, error) {
	id := actor.UserID
	if strings.TrimSpace(raw) != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, reporterrors.ErrInvalidUserID
		}
		id = parsed
	}
	if !actor.IsAdmin() && !actor.Owns(id) {
		return nil, reporterrors.ErrForbidden
	}

	u, err := s.users.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *service) monthOf(q MonthQuery) (time.Time, time.Time, error) {
	now := s.clock.Now()
	year, month := q.Year, q.Month
	if year == 0 && month == 0 {
		year, month = now.Year(), int(now.Month())
	}
	if year < 1 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, reporterrors.ErrInvalidMonth
	}
	first, last := monthBounds(year, month, now.Location())
	return first, last, nil
}

func (s *service) dateOf(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return clock.Today(s.clock), nil
	}
	d, err := timerecord.ParseDate(raw, s.clock.Now().Location())
	if err != nil {
		return time.Time{}, reporterrors.ErrInvalidDate
	}
	return d, nil
}
