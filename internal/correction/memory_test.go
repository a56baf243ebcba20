package correction

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// memoryRepo mirrors the correction tables closely enough for state machine
// tests, including the one-pending-per-record index.
type memoryRepo struct {
	rows  map[uuid.UUID]*CorrectionRequest
	seq   time.Time
	Calls map[string]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rows:  map[uuid.UUID]*CorrectionRequest{},
		seq:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Calls: map[string]int{},
	}
}

func (m *memoryRepo) WithTx(*sql.Tx) Repository { return m }

func (m *memoryRepo) byRecord(recordID uuid.UUID) []*CorrectionRequest {
	var out []*CorrectionRequest
	for _, c := range m.rows {
		if c.TimeRecordID == recordID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func copyRequest(c *CorrectionRequest) *CorrectionRequest {
	cp := *c
	cp.Breaks = append([]CorrectionBreak(nil), c.Breaks...)
	return &cp
}

func (m *memoryRepo) Create(_ context.Context, c *CorrectionRequest) error {
	m.Calls["Create"]++
	if c.IsPending() {
		for _, other := range m.byRecord(c.TimeRecordID) {
			if other.IsPending() {
				return &pgconn.PgError{Code: "23505", ConstraintName: ConstraintPendingPerRecord}
			}
		}
	}
	m.seq = m.seq.Add(time.Minute)
	c.CreatedAt = m.seq
	m.rows[c.ID] = copyRequest(c)
	return nil
}

func (m *memoryRepo) UpdateProposal(_ context.Context, c *CorrectionRequest) error {
	m.Calls["UpdateProposal"]++
	row, ok := m.rows[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.ArrivalTime, row.DepartureTime, row.Note = c.ArrivalTime, c.DepartureTime, c.Note
	return nil
}

func (m *memoryRepo) ReplaceBreaks(_ context.Context, id uuid.UUID, breaks []CorrectionBreak) error {
	m.Calls["ReplaceBreaks"]++
	row, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Breaks = append([]CorrectionBreak(nil), breaks...)
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.Calls["Delete"]++
	delete(m.rows, id)
	return nil
}

func (m *memoryRepo) DeleteApprovedByTimeRecord(_ context.Context, recordID uuid.UUID) (int64, error) {
	m.Calls["DeleteApprovedByTimeRecord"]++
	var n int64
	for _, c := range m.byRecord(recordID) {
		if c.Status == StatusApproved {
			delete(m.rows, c.ID)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) MarkApproved(_ context.Context, id, approver uuid.UUID, at time.Time) (int64, error) {
	m.Calls["MarkApproved"]++
	row, ok := m.rows[id]
	if !ok || !row.IsPending() {
		return 0, nil
	}
	row.Status = StatusApproved
	row.ApprovedBy = &approver
	row.ApprovedAt = &at
	return 1, nil
}

func (m *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*CorrectionRequest, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyRequest(row), nil
}

func (m *memoryRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CorrectionRequest, error) {
	return m.FindByID(ctx, id)
}

func (m *memoryRepo) FindLatestByTimeRecord(_ context.Context, recordID uuid.UUID) (*CorrectionRequest, error) {
	rows := m.byRecord(recordID)
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return copyRequest(rows[0]), nil
}

func (m *memoryRepo) FindPendingByTimeRecord(_ context.Context, recordID uuid.UUID) (*CorrectionRequest, error) {
	for _, c := range m.byRecord(recordID) {
		if c.IsPending() {
			return copyRequest(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]CorrectionRequest, error) {
	var out []CorrectionRequest
	for _, c := range m.rows {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.UserID != nil && c.UserID != *filter.UserID {
			continue
		}
		out = append(out, *copyRequest(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.After(out[j].WorkDate) })
	return out, nil
}

func (m *memoryRepo) ListPendingByUserAndRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]CorrectionRequest, error) {
	lo, hi := from.Format(timerecord.DateLayout), to.Format(timerecord.DateLayout)
	var out []CorrectionRequest
	for _, c := range m.rows {
		d := c.WorkDate.Format(timerecord.DateLayout)
		if c.UserID == userID && c.IsPending() && d >= lo && d <= hi {
			out = append(out, *copyRequest(c))
		}
	}
	return out, nil
}

func (m *memoryRepo) ListPendingByDate(_ context.Context, date time.Time) ([]CorrectionRequest, error) {
	var out []CorrectionRequest
	for _, c := range m.rows {
		if c.IsPending() && timerecord.SameDate(c.WorkDate, date) {
			out = append(out, *copyRequest(c))
		}
	}
	return out, nil
}

func (m *memoryRepo) count() int {
	return len(m.rows)
}
