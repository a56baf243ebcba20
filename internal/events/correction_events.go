package events

import "time"

const CorrectionLifecycleTopic = "timesheet.correction.lifecycle.v1"

const (
	CorrectionSubmitted   = "correction.submitted"
	CorrectionApproved    = "correction.approved"
	TimeRecordOverwritten = "timerecord.overwritten"
)

// CorrectionLifecycleEvent is published for every write that goes through the
// approval workflow. CorrectionID is empty for admin direct edits.
type CorrectionLifecycleEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	UserID       string    `json:"user_id"`
	TimeRecordID string    `json:"time_record_id"`
	CorrectionID string    `json:"correction_id,omitempty"`
	WorkDate     string    `json:"work_date"`
	Status       string    `json:"status,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
