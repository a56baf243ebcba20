package report

import (
	"github.com/yusuke-yano-01/Timelog/internal/correction"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
)

// MonthQuery selects a user's month. Zero Year/Month mean the current month;
// an empty UserID means the caller.
type MonthQuery struct {
	UserID string
	Year   int
	Month  int
}

type MonthReport struct {
	UserID   string       `json:"user_id"`
	UserName string       `json:"user_name"`
	Year     int          `json:"year"`
	Month    int          `json:"month"`
	Prev     MonthRef     `json:"prev"`
	Next     MonthRef     `json:"next"`
	Rows     []DisplayRow `json:"rows"`
}

type DayDetail struct {
	UserID     string                         `json:"user_id"`
	UserName   string                         `json:"user_name"`
	Row        DisplayRow                     `json:"row"`
	Record     *timerecord.TimeRecordResponse `json:"record"`
	Correction *correction.CorrectionResponse `json:"correction"`
}

type DailyRow struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	DisplayRow
}

type DailyReport struct {
	Date string     `json:"date"`
	Prev string     `json:"prev"`
	Next string     `json:"next"`
	Rows []DailyRow `json:"rows"`
}

// Export is a rendered CSV file.
type Export struct {
	Filename string
	Data     []byte
}
