package timerecord

type BreakResponse struct {
	ID        string  `json:"id,omitempty"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type TimeRecordResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	WorkDate      string          `json:"work_date"`
	ArrivalTime   *string         `json:"arrival_time"`
	DepartureTime *string         `json:"departure_time"`
	Note          *string         `json:"note"`
	Breaks        []BreakResponse `json:"breaks"`
}

func MapToResponse(r TimeRecord) TimeRecordResponse {
	breaks := make([]BreakResponse, len(r.Breaks))
	for i, b := range r.Breaks {
		breaks[i] = BreakResponse{
			ID:        b.ID.String(),
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		}
	}
	return TimeRecordResponse{
		ID:            r.ID.String(),
		UserID:        r.UserID.String(),
		WorkDate:      r.WorkDate.Format(DateLayout),
		ArrivalTime:   r.ArrivalTime,
		DepartureTime: r.DepartureTime,
		Note:          r.Note,
		Breaks:        breaks,
	}
}
