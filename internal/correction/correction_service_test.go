package correction

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	correctionerrors "github.com/yusuke-yano-01/Timelog/internal/correction/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/events"
	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord/timerecordtest"
	"github.com/yusuke-yano-01/Timelog/internal/user"
	usererrors "github.com/yusuke-yano-01/Timelog/internal/user/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeUsers map[string]*user.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type fakeOutbox struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(*sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(_ context.Context, e kafka.OutboxEvent) error {
	f.events = append(f.events, e)
	return nil
}
func (f *fakeOutbox) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) { return nil, nil }
func (f *fakeOutbox) MarkSent(context.Context, string) error                       { return nil }
func (f *fakeOutbox) MarkFailed(context.Context, string, string) error             { return nil }

type invalidations struct {
	users []uuid.UUID
}

func (i *invalidations) InvalidateMonth(_ context.Context, userID uuid.UUID, _ time.Time) {
	i.users = append(i.users, userID)
}

type serviceFixture struct {
	svc         Service
	mock        sqlmock.Sqlmock
	records     *timerecordtest.Repository
	corrections *memoryRepo
	outbox      *fakeOutbox
	cache       *invalidations
	staff       domain.Actor
	admin       domain.Actor
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &serviceFixture{
		mock:        mock,
		records:     timerecordtest.NewRepository(),
		corrections: newMemoryRepo(),
		outbox:      &fakeOutbox{},
		cache:       &invalidations{},
		staff:       domain.Actor{UserID: uuid.New(), Role: domain.RoleStaff},
		admin:       domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin},
	}
	users := fakeUsers{
		f.staff.UserID.String(): {ID: f.staff.UserID, Name: "Aoi", Role: domain.RoleStaff},
		f.admin.UserID.String(): {ID: f.admin.UserID, Name: "Boss", Role: domain.RoleAdmin},
	}
	f.svc = NewService(Deps{
		DB:          db,
		Records:     f.records,
		Corrections: f.corrections,
		Users:       users,
		Outbox:      f.outbox,
		Clock:       clock.Fixed{At: time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)},
		Cache:       f.cache,
	})
	return f
}

func (f *serviceFixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f *serviceFixture) seed09to18() *timerecord.TimeRecord {
	return seedRecord(f.records, f.staff.UserID)
}

func lastEvent(t *testing.T, o *fakeOutbox) events.CorrectionLifecycleEvent {
	t.Helper()
	assert.NotEmpty(t, o.events)
	var e events.CorrectionLifecycleEvent
	assert.NoError(t, json.Unmarshal(o.events[len(o.events)-1].Payload, &e))
	return e
}

func TestService_Submit_InvalidTimesRejectedWithoutSideEffects(t *testing.T) {
	f := newServiceFixture(t)
	rec := f.seed09to18()

	_, err := f.svc.Submit(context.Background(), f.staff, SubmitRequest{
		TimeRecordID: rec.ID.String(),
		WorkDate:     "2024-05-10",
		Arrival:      "19:00",
		Departure:    "18:00",
		Note:         "typo",
	})

	fields, ok := apperror.FieldsOf(err)
	assert.True(t, ok)
	assert.Equal(t, MsgArrivalInvalidStaff, fields["arrival"])
	assert.Zero(t, f.corrections.count())
	assert.Empty(t, f.outbox.events)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_SubmitApproveLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	rec := f.seed09to18()

	// staff files a correction; the record stays as it was.
	f.expectTx(true)
	submitted, err := f.svc.Submit(ctx, f.staff, SubmitRequest{
		TimeRecordID: rec.ID.String(),
		WorkDate:     "2024-05-10",
		Arrival:      "09:30",
		Departure:    "18:30",
		Note:         "late bus",
		Breaks:       []BreakInput{{Start: "12:15", End: "13:00"}},
	})
	assert.NoError(t, err)
	assert.Equal(t, SubmitPending, submitted.Result)
	assert.True(t, submitted.Correction.IsPending)
	assert.Equal(t, "09:00", *f.records.Get(rec.ID).ArrivalTime)
	assert.Equal(t, "18:00", *f.records.Get(rec.ID).DepartureTime)
	assert.Equal(t, events.CorrectionSubmitted, lastEvent(t, f.outbox).EventType)

	// admin approves; the record now equals the proposal.
	f.expectTx(true)
	approved, err := f.svc.Approve(ctx, f.admin, submitted.Correction.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, f.admin.UserID.String(), *approved.ApprovedBy)

	stored := f.records.Get(rec.ID)
	assert.Equal(t, "09:30", *stored.ArrivalTime)
	assert.Equal(t, "18:30", *stored.DepartureTime)
	assert.Equal(t, "late bus", *stored.Note)
	assert.Len(t, stored.Breaks, 1)
	assert.Equal(t, "12:15", stored.Breaks[0].StartTime)
	assert.Equal(t, "13:00", *stored.Breaks[0].EndTime)
	assert.Equal(t, events.CorrectionApproved, lastEvent(t, f.outbox).EventType)

	// Approving twice fails and applies nothing.
	f.expectTx(false)
	_, err = f.svc.Approve(ctx, f.admin, submitted.Correction.ID)
	assert.ErrorIs(t, err, correctionerrors.ErrAlreadyApproved)
	assert.Equal(t, 1, f.records.Calls["UpdateFields"])

	// Staff edits again after approval, then the admin edits directly (E).
	f.expectTx(true)
	again, err := f.svc.Submit(ctx, f.staff, SubmitRequest{
		TimeRecordID: rec.ID.String(),
		WorkDate:     "2024-05-10",
		Arrival:      "09:45",
		Departure:    "18:30",
		Note:         "one more",
	})
	assert.NoError(t, err)
	assert.NotEqual(t, submitted.Correction.ID, again.Correction.ID)

	f.expectTx(true)
	direct, err := f.svc.Submit(ctx, f.admin, SubmitRequest{
		TimeRecordID: rec.ID.String(),
		WorkDate:     "2024-05-10",
		Arrival:      "08:00",
		Departure:    "17:00",
		Note:         "confirmed by manager",
	})
	assert.NoError(t, err)
	assert.Equal(t, SubmitApplied, direct.Result)
	assert.Nil(t, direct.Correction)
	assert.Zero(t, f.corrections.count())
	assert.Equal(t, "08:00", *f.records.Get(rec.ID).ArrivalTime)
	assert.Empty(t, f.records.Get(rec.ID).Breaks)
	last := lastEvent(t, f.outbox)
	assert.Equal(t, events.TimeRecordOverwritten, last.EventType)
	assert.Empty(t, last.CorrectionID)

	assert.Len(t, f.cache.users, 4)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_Submit_RoundTripEqualsLastProposal(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	var last SubmitResponse
	for _, arrival := range []string{"09:10", "09:20", "09:05"} {
		f.expectTx(true)
		resp, err := f.svc.Submit(ctx, f.staff, SubmitRequest{
			WorkDate:  "2024-05-11",
			Arrival:   arrival,
			Departure: "17:00",
			Note:      "saturday shift " + arrival,
			Breaks:    []BreakInput{{Start: "13:00", End: "13:20"}, {Start: "11:00", End: "11:10"}},
		})
		assert.NoError(t, err)
		last = resp
	}

	f.expectTx(true)
	_, err := f.svc.Approve(ctx, f.admin, last.Correction.ID)
	assert.NoError(t, err)

	stored := f.records.Get(uuid.MustParse(last.Record.ID))
	assert.Equal(t, "09:05", *stored.ArrivalTime)
	assert.Equal(t, "17:00", *stored.DepartureTime)
	assert.Equal(t, "saturday shift 09:05", *stored.Note)
	assert.Equal(t, "11:00", stored.Breaks[0].StartTime)
	assert.Equal(t, "13:00", stored.Breaks[1].StartTime)
	assert.Equal(t, 1, f.records.Count())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_Submit_Authorization(t *testing.T) {
	ctx := context.Background()

	t.Run("staff cannot edit another user's record", func(t *testing.T) {
		f := newServiceFixture(t)
		otherID := f.records.Seed(timerecord.TimeRecord{UserID: uuid.New(), WorkDate: workDay})

		f.expectTx(false)
		_, err := f.svc.Submit(ctx, f.staff, SubmitRequest{TimeRecordID: otherID.String(), WorkDate: "2024-05-10", Note: "x"})

		assert.ErrorIs(t, err, correctionerrors.ErrForbidden)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("staff cannot name another user", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTx(false)
		_, err := f.svc.Submit(ctx, f.staff, SubmitRequest{UserID: uuid.NewString(), WorkDate: "2024-05-10", Note: "x"})
		assert.ErrorIs(t, err, correctionerrors.ErrForbidden)
	})

	t.Run("admin must name a target", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTx(false)
		_, err := f.svc.Submit(ctx, f.admin, SubmitRequest{WorkDate: "2024-05-10", Note: "x"})
		assert.ErrorIs(t, err, correctionerrors.ErrTargetRequired)
	})

	t.Run("admin target must exist", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTx(false)
		_, err := f.svc.Submit(ctx, f.admin, SubmitRequest{UserID: uuid.NewString(), WorkDate: "2024-05-10", Note: "x"})
		assert.ErrorIs(t, err, usererrors.ErrUserNotFound)
	})

	t.Run("admin cannot target an admin", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTx(false)
		_, err := f.svc.Submit(ctx, f.admin, SubmitRequest{UserID: f.admin.UserID.String(), WorkDate: "2024-05-10", Note: "x"})
		assert.ErrorIs(t, err, correctionerrors.ErrTargetNotStaff)
	})

	t.Run("admin creates a missing record for staff", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTx(true)
		resp, err := f.svc.Submit(ctx, f.admin, SubmitRequest{UserID: f.staff.UserID.String(), WorkDate: "2024-05-12", Arrival: "09:00", Note: "sick leave morning"})
		assert.NoError(t, err)
		assert.Equal(t, SubmitApplied, resp.Result)
		assert.Equal(t, f.staff.UserID.String(), resp.Record.UserID)
		assert.Nil(t, resp.Record.DepartureTime)
	})

	t.Run("record date must match work_date", func(t *testing.T) {
		f := newServiceFixture(t)
		rec := f.seed09to18()
		f.expectTx(false)
		_, err := f.svc.Submit(ctx, f.staff, SubmitRequest{TimeRecordID: rec.ID.String(), WorkDate: "2024-05-11", Note: "x"})
		assert.ErrorIs(t, err, correctionerrors.ErrDateMismatch)
	})
}

func TestService_Approve_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("staff cannot approve", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.Approve(ctx, f.staff, uuid.NewString())
		assert.ErrorIs(t, err, correctionerrors.ErrApproveForbidden)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("invalid id", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.Approve(ctx, f.admin, "nope")
		assert.ErrorIs(t, err, correctionerrors.ErrInvalidCorrectionID)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTx(false)
		_, err := f.svc.Approve(ctx, f.admin, uuid.NewString())
		assert.ErrorIs(t, err, correctionerrors.ErrCorrectionNotFound)
	})
}

func TestService_ListAndGet(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	other := domain.Actor{UserID: uuid.New(), Role: domain.RoleStaff}

	mine := &CorrectionRequest{ID: uuid.New(), UserID: f.staff.UserID, TimeRecordID: uuid.New(), WorkDate: workDay, Status: StatusPending}
	theirs := &CorrectionRequest{ID: uuid.New(), UserID: other.UserID, TimeRecordID: uuid.New(), WorkDate: workDay.AddDate(0, 0, 1), Status: StatusApproved}
	assert.NoError(t, f.corrections.Create(ctx, mine))
	assert.NoError(t, f.corrections.Create(ctx, theirs))

	all, err := f.svc.List(ctx, f.admin, "")
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, theirs.ID.String(), all[0].ID)

	pending, err := f.svc.List(ctx, f.admin, "pending")
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	own, err := f.svc.List(ctx, f.staff, "")
	assert.NoError(t, err)
	assert.Len(t, own, 1)
	assert.Equal(t, mine.ID.String(), own[0].ID)

	_, err = f.svc.List(ctx, f.staff, "rejected")
	assert.ErrorIs(t, err, correctionerrors.ErrInvalidStatus)

	got, err := f.svc.GetByID(ctx, f.staff, mine.ID.String())
	assert.NoError(t, err)
	assert.True(t, got.IsPending)

	_, err = f.svc.GetByID(ctx, f.staff, theirs.ID.String())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.GetByID(ctx, f.admin, uuid.NewString())
	assert.ErrorIs(t, err, correctionerrors.ErrCorrectionNotFound)
}
