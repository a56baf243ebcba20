package report

import (
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
)

type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// monthBounds returns the first and last calendar day of year/month in loc.
func monthBounds(year, month int, loc *time.Location) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return first, first.AddDate(0, 1, -1)
}

func neighbours(first time.Time) (MonthRef, MonthRef) {
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	return MonthRef{Year: prev.Year(), Month: int(prev.Month())},
		MonthRef{Year: next.Year(), Month: int(next.Month())}
}

// buildMonth emits one row per calendar day from first to last.
func buildMonth(first, last time.Time, records []timerecord.TimeRecord, pendingDays map[string]bool) []DisplayRow {
	byDate := make(map[string]*timerecord.TimeRecord, len(records))
	for i := range records {
		byDate[records[i].WorkDate.Format(timerecord.DateLayout)] = &records[i]
	}

	rows := make([]DisplayRow, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(timerecord.DateLayout)
		rows = append(rows, BuildRow(d, byDate[key], pendingDays[key]))
	}
	return rows
}
