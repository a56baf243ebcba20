package attendance

import "github.com/yusuke-yano-01/Timelog/internal/timerecord"

const (
	StatusOffDuty  = "OFF_DUTY"
	StatusWorking  = "WORKING"
	StatusOnBreak  = "ON_BREAK"
	StatusFinished = "FINISHED"
)

type TodayResponse struct {
	Date   string                         `json:"date"`
	Now    string                         `json:"now"`
	Status string                         `json:"status"`
	Record *timerecord.TimeRecordResponse `json:"record"`
}

// StatusOf derives the live attendance status of rec. A record without an
// arrival time (an anchor created for a correction) counts as off duty.
func StatusOf(rec *timerecord.TimeRecord) string {
	switch {
	case rec == nil || rec.ArrivalTime == nil:
		return StatusOffDuty
	case rec.DepartureTime != nil:
		return StatusFinished
	case rec.OpenBreak() != nil:
		return StatusOnBreak
	default:
		return StatusWorking
	}
}
