// Package timerecordtest provides an in-memory timerecord.Repository for service tests.
package timerecordtest

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository keeps records in memory and enforces the same uniqueness rules
// as the Postgres schema: one record per (user, date) and one open break per record.
type Repository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*timerecord.TimeRecord

	// Calls counts invocations per method name.
	Calls map[string]int
	// Fail makes the named method return the given error.
	Fail map[string]error
}

func NewRepository() *Repository {
	return &Repository{
		records: map[uuid.UUID]*timerecord.TimeRecord{},
		Calls:   map[string]int{},
		Fail:    map[string]error{},
	}
}

func (r *Repository) WithTx(*sql.Tx) timerecord.Repository { return r }

func (r *Repository) enter(name string) error {
	r.Calls[name]++
	return r.Fail[name]
}

// Seed stores rec as is and returns its id.
func (r *Repository) Seed(rec timerecord.TimeRecord) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for i := range rec.Breaks {
		rec.Breaks[i].TimeRecordID = rec.ID
		if rec.Breaks[i].ID == uuid.Nil {
			rec.Breaks[i].ID = uuid.New()
		}
	}
	r.records[rec.ID] = clone(&rec)
	return rec.ID
}

// Get returns a copy of the stored record, or nil.
func (r *Repository) Get(id uuid.UUID) *timerecord.TimeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil
	}
	return clone(rec)
}

func (r *Repository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *Repository) Create(_ context.Context, rec *timerecord.TimeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Create"); err != nil {
		return err
	}
	for _, existing := range r.records {
		if existing.UserID == rec.UserID && timerecord.SameDate(existing.WorkDate, rec.WorkDate) {
			return &pgconn.PgError{Code: "23505", ConstraintName: timerecord.ConstraintUserDate}
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for i := range rec.Breaks {
		rec.Breaks[i].TimeRecordID = rec.ID
		if rec.Breaks[i].ID == uuid.Nil {
			rec.Breaks[i].ID = uuid.New()
		}
	}
	r.records[rec.ID] = clone(rec)
	return nil
}

func (r *Repository) UpdateFields(_ context.Context, rec *timerecord.TimeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpdateFields"); err != nil {
		return err
	}
	stored, ok := r.records[rec.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.ArrivalTime = copyStr(rec.ArrivalTime)
	stored.DepartureTime = copyStr(rec.DepartureTime)
	stored.Note = copyStr(rec.Note)
	return nil
}

func (r *Repository) FindByID(_ context.Context, id uuid.UUID) (*timerecord.TimeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("FindByID"); err != nil {
		return nil, err
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clone(rec), nil
}

func (r *Repository) FindByUserAndDate(_ context.Context, userID uuid.UUID, date time.Time) (*timerecord.TimeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("FindByUserAndDate"); err != nil {
		return nil, err
	}
	for _, rec := range r.records {
		if rec.UserID == userID && timerecord.SameDate(rec.WorkDate, date) {
			return clone(rec), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Repository) ListByUserAndRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]timerecord.TimeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListByUserAndRange"); err != nil {
		return nil, err
	}
	lo, hi := from.Format(timerecord.DateLayout), to.Format(timerecord.DateLayout)
	var out []timerecord.TimeRecord
	for _, rec := range r.records {
		d := rec.WorkDate.Format(timerecord.DateLayout)
		if rec.UserID == userID && d >= lo && d <= hi {
			out = append(out, *clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out, nil
}

func (r *Repository) ListByDate(_ context.Context, date time.Time) ([]timerecord.TimeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListByDate"); err != nil {
		return nil, err
	}
	var out []timerecord.TimeRecord
	for _, rec := range r.records {
		if timerecord.SameDate(rec.WorkDate, date) {
			out = append(out, *clone(rec))
		}
	}
	return out, nil
}

func (r *Repository) ReplaceBreaks(_ context.Context, recordID uuid.UUID, breaks []timerecord.BreakInterval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ReplaceBreaks"); err != nil {
		return err
	}
	rec, ok := r.records[recordID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rec.Breaks = nil
	for _, b := range breaks {
		b.TimeRecordID = recordID
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		b.EndTime = copyStr(b.EndTime)
		rec.Breaks = append(rec.Breaks, b)
	}
	return nil
}

func (r *Repository) FindOpenBreak(_ context.Context, recordID uuid.UUID) (*timerecord.BreakInterval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("FindOpenBreak"); err != nil {
		return nil, err
	}
	rec, ok := r.records[recordID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if open := rec.OpenBreak(); open != nil {
		b := *open
		return &b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Repository) CreateBreak(_ context.Context, b *timerecord.BreakInterval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateBreak"); err != nil {
		return err
	}
	rec, ok := r.records[b.TimeRecordID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if b.IsOpen() && rec.OpenBreak() != nil {
		return &pgconn.PgError{Code: "23505", ConstraintName: timerecord.ConstraintOpenBreak}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	cp.EndTime = copyStr(b.EndTime)
	rec.Breaks = append(rec.Breaks, cp)
	return nil
}

func (r *Repository) CloseBreak(_ context.Context, b *timerecord.BreakInterval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CloseBreak"); err != nil {
		return err
	}
	rec, ok := r.records[b.TimeRecordID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range rec.Breaks {
		if rec.Breaks[i].ID == b.ID && rec.Breaks[i].IsOpen() {
			rec.Breaks[i].EndTime = copyStr(b.EndTime)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func clone(rec *timerecord.TimeRecord) *timerecord.TimeRecord {
	cp := *rec
	cp.ArrivalTime = copyStr(rec.ArrivalTime)
	cp.DepartureTime = copyStr(rec.DepartureTime)
	cp.Note = copyStr(rec.Note)
	cp.Breaks = make([]timerecord.BreakInterval, len(rec.Breaks))
	for i, b := range rec.Breaks {
		b.EndTime = copyStr(b.EndTime)
		cp.Breaks[i] = b
	}
	sort.SliceStable(cp.Breaks, func(i, j int) bool { return cp.Breaks[i].StartTime < cp.Breaks[j].StartTime })
	return &cp
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Str is a convenience for building records in tests.
func Str(s string) *string {
	return &s
}
