package audit

type AuditLogResponse struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	ActorID      string `json:"actor_id,omitempty"`
	ActorRole    string `json:"actor_role,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	TimeRecordID string `json:"time_record_id,omitempty"`
	CorrectionID string `json:"correction_id,omitempty"`
	WorkDate     string `json:"work_date,omitempty"`
	Details      string `json:"details"`
	OccurredAt   string `json:"occurred_at"`
}
