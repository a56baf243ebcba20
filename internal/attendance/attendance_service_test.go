package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	attendanceerrors "github.com/yusuke-yano-01/Timelog/internal/attendance/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord/timerecordtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func (c *movableClock) set(hhmm string) {
	t, _ := time.Parse(timerecord.ClockLayout, hhmm)
	c.now = time.Date(c.now.Year(), c.now.Month(), c.now.Day(), t.Hour(), t.Minute(), 0, 0, c.now.Location())
}

type recordingInvalidator struct {
	calls int
}

func (r *recordingInvalidator) InvalidateMonth(context.Context, uuid.UUID, time.Time) { r.calls++ }

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

type fixture struct {
	svc   Service
	repo  *timerecordtest.Repository
	clock *movableClock
	cache *recordingInvalidator
	mock  sqlmock.Sqlmock
	staff domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loc := time.FixedZone("JST", 9*60*60)
	f := &fixture{
		repo:  timerecordtest.NewRepository(),
		clock: &movableClock{now: time.Date(2024, 5, 10, 9, 0, 0, 0, loc)},
		cache: &recordingInvalidator{},
		mock:  mock,
		staff: domain.Actor{UserID: uuid.New(), Role: domain.RoleStaff},
	}
	f.svc = NewService(db, f.repo, f.clock, f.cache)
	return f
}

func TestService_ClockIn_SecondClockInSameDayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expectTx(f.mock, true)
	resp, err := f.svc.ClockIn(ctx, f.staff)
	assert.NoError(t, err)
	assert.Equal(t, "2024-05-10", resp.WorkDate)
	assert.Equal(t, "09:00", *resp.ArrivalTime)
	assert.Nil(t, resp.DepartureTime)
	assert.Equal(t, 1, f.cache.calls)

	expectTx(f.mock, false)
	_, err = f.svc.ClockIn(ctx, f.staff)
	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	assert.Equal(t, 1, f.repo.Count())
	assert.Equal(t, 1, f.cache.calls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_ClockIn_UniqueViolationMapsToAlreadyClockedIn(t *testing.T) {
	f := newFixture(t)
	f.repo.Fail["Create"] = &pgconn.PgError{Code: "23505", ConstraintName: timerecord.ConstraintUserDate}

	expectTx(f.mock, false)
	_, err := f.svc.ClockIn(context.Background(), f.staff)

	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_ClockIn_AnchorRecordBlocksClockIn(t *testing.T) {
	f := newFixture(t)
	f.repo.Seed(timerecord.TimeRecord{UserID: f.staff.UserID, WorkDate: clock.DateOf(f.clock.now)})

	expectTx(f.mock, false)
	_, err := f.svc.ClockIn(context.Background(), f.staff)

	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
}

func TestService_RejectsAdmin(t *testing.T) {
	f := newFixture(t)
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, admin)
	assert.ErrorIs(t, err, attendanceerrors.ErrStaffOnly)
	_, err = f.svc.ClockOut(ctx, admin)
	assert.ErrorIs(t, err, attendanceerrors.ErrStaffOnly)
	_, err = f.svc.StartBreak(ctx, admin)
	assert.ErrorIs(t, err, attendanceerrors.ErrStaffOnly)
	_, err = f.svc.EndBreak(ctx, admin)
	assert.ErrorIs(t, err, attendanceerrors.ErrStaffOnly)
	_, err = f.svc.Today(ctx, admin)
	assert.ErrorIs(t, err, attendanceerrors.ErrStaffOnly)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_ClockOut(t *testing.T) {
	ctx := context.Background()

	t.Run("no record", func(t *testing.T) {
		f := newFixture(t)
		expectTx(f.mock, false)
		_, err := f.svc.ClockOut(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrNoOpenRecord)
	})

	t.Run("sets departure then rejects second call", func(t *testing.T) {
		f := newFixture(t)
		expectTx(f.mock, true)
		_, err := f.svc.ClockIn(ctx, f.staff)
		assert.NoError(t, err)

		f.clock.set("18:05")
		expectTx(f.mock, true)
		resp, err := f.svc.ClockOut(ctx, f.staff)
		assert.NoError(t, err)
		assert.Equal(t, "18:05", *resp.DepartureTime)

		expectTx(f.mock, false)
		_, err = f.svc.ClockOut(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
		assert.Equal(t, 1, f.repo.Calls["UpdateFields"])
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestService_Breaks(t *testing.T) {
	ctx := context.Background()

	t.Run("start without clock in", func(t *testing.T) {
		f := newFixture(t)
		expectTx(f.mock, false)
		_, err := f.svc.StartBreak(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrNoOpenRecord)
	})

	t.Run("end without clock in does not mutate", func(t *testing.T) {
		f := newFixture(t)
		expectTx(f.mock, false)
		_, err := f.svc.EndBreak(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrNotOnBreak)
		assert.Zero(t, f.repo.Calls["CloseBreak"])
	})

	t.Run("full cycle", func(t *testing.T) {
		f := newFixture(t)
		expectTx(f.mock, true)
		in, err := f.svc.ClockIn(ctx, f.staff)
		assert.NoError(t, err)
		id := uuid.MustParse(in.ID)

		f.clock.set("12:00")
		expectTx(f.mock, true)
		resp, err := f.svc.StartBreak(ctx, f.staff)
		assert.NoError(t, err)
		assert.Len(t, resp.Breaks, 1)
		assert.Nil(t, resp.Breaks[0].EndTime)

		expectTx(f.mock, false)
		_, err = f.svc.StartBreak(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyOnBreak)

		today, err := f.svc.Today(ctx, f.staff)
		assert.NoError(t, err)
		assert.Equal(t, StatusOnBreak, today.Status)

		f.clock.set("12:45")
		expectTx(f.mock, true)
		resp, err = f.svc.EndBreak(ctx, f.staff)
		assert.NoError(t, err)
		assert.Equal(t, "12:45", *resp.Breaks[0].EndTime)

		expectTx(f.mock, false)
		_, err = f.svc.EndBreak(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrNotOnBreak)
		assert.Equal(t, 1, f.repo.Calls["CloseBreak"])

		f.clock.set("15:00")
		expectTx(f.mock, true)
		_, err = f.svc.StartBreak(ctx, f.staff)
		assert.NoError(t, err)

		stored := f.repo.Get(id)
		assert.Len(t, stored.Breaks, 2)
		assert.NotNil(t, stored.OpenBreak())
		assert.Equal(t, "15:00", stored.OpenBreak().StartTime)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("start after clock out", func(t *testing.T) {
		f := newFixture(t)
		f.repo.Seed(timerecord.TimeRecord{
			UserID:        f.staff.UserID,
			WorkDate:      clock.DateOf(f.clock.now),
			ArrivalTime:   timerecordtest.Str("08:00"),
			DepartureTime: timerecordtest.Str("08:30"),
		})
		expectTx(f.mock, false)
		_, err := f.svc.StartBreak(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
	})

	t.Run("open break index violation", func(t *testing.T) {
		f := newFixture(t)
		f.repo.Seed(timerecord.TimeRecord{
			UserID:      f.staff.UserID,
			WorkDate:    clock.DateOf(f.clock.now),
			ArrivalTime: timerecordtest.Str("08:00"),
		})
		f.repo.Fail["CreateBreak"] = &pgconn.PgError{Code: "23505", ConstraintName: timerecord.ConstraintOpenBreak}
		expectTx(f.mock, false)
		_, err := f.svc.StartBreak(ctx, f.staff)
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyOnBreak)
	})
}

func TestService_RepositoryErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	f.repo.Fail["FindByUserAndDate"] = errors.New("db down")

	expectTx(f.mock, false)
	_, err := f.svc.ClockIn(context.Background(), f.staff)

	assert.EqualError(t, err, "db down")
	assert.Zero(t, f.cache.calls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestStatusOf(t *testing.T) {
	open := timerecord.BreakInterval{StartTime: "12:00"}
	closed := timerecord.BreakInterval{StartTime: "12:00", EndTime: timerecordtest.Str("12:30")}

	tests := []struct {
		name string
		rec  *timerecord.TimeRecord
		want string
	}{
		{"no record", nil, StatusOffDuty},
		{"anchor record", &timerecord.TimeRecord{}, StatusOffDuty},
		{"working", &timerecord.TimeRecord{ArrivalTime: timerecordtest.Str("09:00"), Breaks: []timerecord.BreakInterval{closed}}, StatusWorking},
		{"on break", &timerecord.TimeRecord{ArrivalTime: timerecordtest.Str("09:00"), Breaks: []timerecord.BreakInterval{closed, open}}, StatusOnBreak},
		{"finished", &timerecord.TimeRecord{ArrivalTime: timerecordtest.Str("09:00"), DepartureTime: timerecordtest.Str("18:00")}, StatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.rec))
		})
	}
}
