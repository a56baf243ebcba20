package report

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
)

const (
	csvDateLayout = "2006/01/02"
	csvAbsent     = "-"
)

var (
	csvHeader = []string{"date", "arrival", "departure", "break", "total"}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// EncodeCSV writes rows with a header and a UTF-8 byte order mark so
// spreadsheet tools pick the right encoding.
func EncodeCSV(rows []DisplayRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			csvDate(r.Date),
			orAbsent(r.Arrival),
			orAbsent(r.Departure),
			orAbsent(r.Break),
			orAbsent(r.Total),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvDate(s string) string {
	d, err := time.Parse(timerecord.DateLayout, s)
	if err != nil {
		return s
	}
	return d.Format(csvDateLayout)
}

func orAbsent(s string) string {
	if s == "" {
		return csvAbsent
	}
	return s
}
