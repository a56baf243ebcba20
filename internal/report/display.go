package report

import (
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
)

// Masked replaces every derived field of a day that has a pending correction.
const Masked = "-"

// DisplayRow is one calendar day of a time log. Empty strings mean "no data";
// Masked means the day is waiting for approval.
type DisplayRow struct {
	Date         string `json:"date"`
	Weekday      string `json:"weekday"`
	TimeRecordID string `json:"time_record_id,omitempty"`
	Arrival      string `json:"arrival"`
	Departure    string `json:"departure"`
	Break        string `json:"break"`
	Total        string `json:"total"`
	Pending      bool   `json:"pending"`
}

// BuildRow derives the display fields for day from its record, if any.
func BuildRow(day time.Time, rec *timerecord.TimeRecord, pending bool) DisplayRow {
	row := DisplayRow{
		Date:    day.Format(timerecord.DateLayout),
		Weekday: day.Weekday().String()[:3],
		Pending: pending,
	}
	if rec != nil {
		row.TimeRecordID = rec.ID.String()
	}
	if pending {
		row.Arrival, row.Departure, row.Break, row.Total = Masked, Masked, Masked, Masked
		return row
	}
	if rec == nil {
		return row
	}

	row.Arrival = deref(rec.ArrivalTime)
	row.Departure = deref(rec.DepartureTime)
	if m := BreakMinutes(rec.Breaks); m > 0 {
		row.Break = timerecord.FormatMinutes(m)
	}
	if m, ok := WorkMinutes(rec); ok {
		row.Total = timerecord.FormatMinutes(m)
	}
	return row
}

// BreakMinutes sums the closed intervals. Open or unparseable ones count as zero.
func BreakMinutes(breaks []timerecord.BreakInterval) int {
	total := 0
	for _, b := range breaks {
		if b.EndTime == nil {
			continue
		}
		if m, ok := span(b.StartTime, *b.EndTime); ok {
			total += m
		}
	}
	return total
}

// WorkMinutes is the time between arrival and departure less breaks. It
// reports false when either end is missing or nothing positive remains.
func WorkMinutes(rec *timerecord.TimeRecord) (int, bool) {
	if rec.ArrivalTime == nil || rec.DepartureTime == nil {
		return 0, false
	}
	m, ok := span(*rec.ArrivalTime, *rec.DepartureTime)
	if !ok {
		return 0, false
	}
	m -= BreakMinutes(rec.Breaks)
	if m <= 0 {
		return 0, false
	}
	return m, true
}

// span is the absolute distance between two clock strings in minutes.
func span(from, to string) (int, bool) {
	a, err := timerecord.ParseClock(from)
	if err != nil {
		return 0, false
	}
	b, err := timerecord.ParseClock(to)
	if err != nil {
		return 0, false
	}
	if b < a {
		return a - b, true
	}
	return b - a, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
