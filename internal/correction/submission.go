package correction

import (
	"context"
	"errors"

	correctionerrors "github.com/yusuke-yano-01/Timelog/internal/correction/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the transaction-bound persistence a Submission writes through.
type Store struct {
	Records     timerecord.Repository
	Corrections Repository
}

// Draft is a validated edit aimed at one user's date.
type Draft struct {
	UserID   uuid.UUID
	Record   *timerecord.TimeRecord // nil when the user has no record for the date yet
	Proposal Proposal
}

type Outcome struct {
	Record *timerecord.TimeRecord
	// Request is the pending request left behind by a staff submission.
	Request *CorrectionRequest
	// Removed is the request deleted on the way: a pending one discarded by an
	// admin edit, or an approved one superseded by a new staff submission.
	Removed *CorrectionRequest
	// Applied reports that the record itself was written.
	Applied bool
}

// Submission is one of the two write paths for an edit: immediate for
// administrators, deferred behind approval for staff.
type Submission interface {
	Apply(ctx context.Context, store Store, d Draft) (Outcome, error)
}

// ForActor picks the write path for the actor's role.
func ForActor(actor domain.Actor) Submission {
	if actor.IsAdmin() {
		return AdminSubmission{}
	}
	return StaffSubmission{}
}

// AdminSubmission writes the record directly and discards a pending request.
type AdminSubmission struct{}

func (AdminSubmission) Apply(ctx context.Context, store Store, d Draft) (Outcome, error) {
	if d.Record == nil {
		rec := &timerecord.TimeRecord{
			ID:       uuid.New(),
			UserID:   d.UserID,
			WorkDate: d.Proposal.WorkDate,
			Breaks:   d.Proposal.recordBreaks(),
		}
		setFields(rec, d.Proposal)
		if err := store.Records.Create(ctx, rec); err != nil {
			return Outcome{}, err
		}
		return Outcome{Record: rec, Applied: true}, nil
	}

	out := Outcome{Record: d.Record, Applied: true}
	pending, err := findOptional(store.Corrections.FindPendingByTimeRecord(ctx, d.Record.ID))
	if err != nil {
		return Outcome{}, err
	}
	if pending != nil {
		if err := store.Corrections.Delete(ctx, pending.ID); err != nil {
			return Outcome{}, err
		}
		out.Removed = pending
	}

	if err := writeRecord(ctx, store.Records, d.Record, d.Proposal); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// StaffSubmission leaves the record untouched and files or refreshes the
// single pending request for it.
type StaffSubmission struct{}

func (StaffSubmission) Apply(ctx context.Context, store Store, d Draft) (Outcome, error) {
	rec := d.Record
	if rec == nil {
		rec = &timerecord.TimeRecord{ID: uuid.New(), UserID: d.UserID, WorkDate: d.Proposal.WorkDate}
		if err := store.Records.Create(ctx, rec); err != nil {
			return Outcome{}, err
		}
	}
	out := Outcome{Record: rec}

	existing, err := findOptional(store.Corrections.FindLatestByTimeRecord(ctx, rec.ID))
	if err != nil {
		return Outcome{}, err
	}

	if existing == nil || !existing.IsPending() {
		if existing != nil {
			if _, err := store.Corrections.DeleteApprovedByTimeRecord(ctx, rec.ID); err != nil {
				return Outcome{}, err
			}
			out.Removed = existing
		}

		req := &CorrectionRequest{
			ID:           uuid.New(),
			UserID:       d.UserID,
			TimeRecordID: rec.ID,
			WorkDate:     rec.WorkDate,
			Status:       StatusPending,
			Breaks:       d.Proposal.correctionBreaks(),
		}
		setProposal(req, d.Proposal)
		if err := store.Corrections.Create(ctx, req); err != nil {
			if timerecord.IsUniqueViolation(err, ConstraintPendingPerRecord) {
				return Outcome{}, correctionerrors.ErrConcurrentEdit
			}
			return Outcome{}, err
		}
		out.Request = req
	} else {
		setProposal(existing, d.Proposal)
		if err := store.Corrections.UpdateProposal(ctx, existing); err != nil {
			return Outcome{}, err
		}
		breaks := d.Proposal.correctionBreaks()
		if err := store.Corrections.ReplaceBreaks(ctx, existing.ID, breaks); err != nil {
			return Outcome{}, err
		}
		existing.Breaks = breaks
		out.Request = existing
	}

	// Unreachable: both branches above leave a pending request. Kept as a
	// guard so a staff edit is never silently dropped.
	if out.Request == nil {
		if err := writeRecord(ctx, store.Records, rec, d.Proposal); err != nil {
			return Outcome{}, err
		}
		out.Applied = true
	}
	return out, nil
}

func setFields(rec *timerecord.TimeRecord, p Proposal) {
	rec.ArrivalTime = p.Arrival
	rec.DepartureTime = p.Departure
	rec.Note = p.Note
}

func setProposal(req *CorrectionRequest, p Proposal) {
	req.ArrivalTime = p.Arrival
	req.DepartureTime = p.Departure
	req.Note = p.Note
}

// writeRecord overwrites the record's fields and replaces all of its breaks.
func writeRecord(ctx context.Context, records timerecord.Repository, rec *timerecord.TimeRecord, p Proposal) error {
	setFields(rec, p)
	if err := records.UpdateFields(ctx, rec); err != nil {
		return err
	}
	breaks := p.recordBreaks()
	if err := records.ReplaceBreaks(ctx, rec.ID, breaks); err != nil {
		return err
	}
	rec.Breaks = breaks
	return nil
}

func findOptional(c *CorrectionRequest, err error) (*CorrectionRequest, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
