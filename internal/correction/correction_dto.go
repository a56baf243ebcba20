package correction

import (
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
)

type BreakInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SubmitRequest is the body of PUT /timelogs. Blank clock strings mean "not set".
type SubmitRequest struct {
	TimeRecordID string       `json:"time_record_id"`
	UserID       string       `json:"user_id"`
	WorkDate     string       `json:"work_date" binding:"required"`
	Arrival      string       `json:"arrival"`
	Departure    string       `json:"departure"`
	Note         string       `json:"note"`
	Breaks       []BreakInput `json:"breaks"`
}

const (
	SubmitApplied = "APPLIED"
	SubmitPending = "PENDING_APPROVAL"
)

type SubmitResponse struct {
	Result     string                        `json:"result"`
	Record     timerecord.TimeRecordResponse `json:"record"`
	Correction *CorrectionResponse           `json:"correction,omitempty"`
}

type BreakResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CorrectionResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name,omitempty"`
	TimeRecordID  string          `json:"time_record_id"`
	WorkDate      string          `json:"work_date"`
	ArrivalTime   *string         `json:"arrival_time"`
	DepartureTime *string         `json:"departure_time"`
	Note          *string         `json:"note"`
	Breaks        []BreakResponse `json:"breaks"`
	Status        string          `json:"status"`
	IsPending     bool            `json:"is_pending"`
	ApprovedBy    *string         `json:"approved_by,omitempty"`
	ApprovedAt    *string         `json:"approved_at,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

func ToResponse(c CorrectionRequest) CorrectionResponse {
	breaks := make([]BreakResponse, len(c.Breaks))
	for i, b := range c.Breaks {
		breaks[i] = BreakResponse{StartTime: b.StartTime, EndTime: b.EndTime}
	}

	resp := CorrectionResponse{
		ID:            c.ID.String(),
		UserID:        c.UserID.String(),
		TimeRecordID:  c.TimeRecordID.String(),
		WorkDate:      c.WorkDate.Format(timerecord.DateLayout),
		ArrivalTime:   c.ArrivalTime,
		DepartureTime: c.DepartureTime,
		Note:          c.Note,
		Breaks:        breaks,
		Status:        c.Status,
		IsPending:     c.IsPending(),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if c.User != nil {
		resp.UserName = c.User.Name
	}
	if c.ApprovedBy != nil {
		v := c.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if c.ApprovedAt != nil {
		v := c.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	return resp
}
