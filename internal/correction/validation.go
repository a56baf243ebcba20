package correction

import (
	"sort"
	"strings"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
)

const (
	MsgNoteRequired        = "note required"
	MsgArrivalInvalidAdmin = "arrival/departure invalid"
	MsgArrivalInvalidStaff = "arrival invalid"
	MsgBreakInvalid        = "break interval invalid"
	MsgTimeFormat          = "time must be HH:MM"
	MsgDateFormat          = "date must be YYYY-MM-DD"
)

type ProposedBreak struct {
	Start string
	End   string
}

// Proposal is a validated, normalized edit. Clock values are zero padded HH:MM.
type Proposal struct {
	WorkDate  time.Time
	Arrival   *string
	Departure *string
	Note      *string
	Breaks    []ProposedBreak
}

// Validate checks req for the given role and returns every violated field at
// once. Breaks missing either end are dropped, the rest are sorted by start.
func Validate(role string, req SubmitRequest, loc *time.Location) (Proposal, error) {
	fields := apperror.FieldErrors{}
	var p Proposal

	date, err := timerecord.ParseDate(req.WorkDate, loc)
	if err != nil {
		fields.Add("work_date", MsgDateFormat)
	}
	p.WorkDate = date

	p.Arrival = optionalClock(fields, "arrival", req.Arrival)
	p.Departure = optionalClock(fields, "departure", req.Departure)

	if strings.TrimSpace(req.Note) == "" {
		fields.Add("note", MsgNoteRequired)
	} else {
		note := req.Note
		p.Note = &note
	}

	p.Breaks = completeBreaks(fields, req.Breaks)

	if p.Arrival != nil && p.Departure != nil && *p.Arrival >= *p.Departure {
		if role == domain.RoleAdmin {
			fields.Add("arrival", MsgArrivalInvalidAdmin)
		} else {
			fields.Add("arrival", MsgArrivalInvalidStaff)
		}
	}

	if p.Departure != nil {
		for _, b := range p.Breaks {
			if b.Start >= *p.Departure || b.End >= *p.Departure {
				fields.Add("breaktime", MsgBreakInvalid)
				break
			}
		}
	}

	if !fields.Empty() {
		return Proposal{}, apperror.Validation(fields)
	}
	return p, nil
}

func optionalClock(fields apperror.FieldErrors, field, raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	v, err := timerecord.NormalizeClock(raw)
	if err != nil {
		fields.Add(field, MsgTimeFormat)
		return nil
	}
	return &v
}

func completeBreaks(fields apperror.FieldErrors, in []BreakInput) []ProposedBreak {
	out := make([]ProposedBreak, 0, len(in))
	for _, b := range in {
		if strings.TrimSpace(b.Start) == "" || strings.TrimSpace(b.End) == "" {
			continue
		}
		start, errStart := timerecord.NormalizeClock(b.Start)
		end, errEnd := timerecord.NormalizeClock(b.End)
		if errStart != nil || errEnd != nil {
			fields.Add("breaktime", MsgBreakInvalid)
			continue
		}
		out = append(out, ProposedBreak{Start: start, End: end})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (p Proposal) recordBreaks() []timerecord.BreakInterval {
	out := make([]timerecord.BreakInterval, len(p.Breaks))
	for i, b := range p.Breaks {
		end := b.End
		out[i] = timerecord.BreakInterval{StartTime: b.Start, EndTime: &end}
	}
	return out
}

func (p Proposal) correctionBreaks() []CorrectionBreak {
	out := make([]CorrectionBreak, len(p.Breaks))
	for i, b := range p.Breaks {
		out[i] = CorrectionBreak{StartTime: b.Start, EndTime: b.End}
	}
	return out
}
