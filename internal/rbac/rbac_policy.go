package rbac

import "github.com/yusuke-yano-01/Timelog/internal/domain"

const (
	ResourceAttendance = "attendance"
	ResourceTimelog    = "timelog"
	ResourceCorrection = "correction"
	ResourceStaff      = "staff"
	ResourceAudit      = "audit"

	ActionRead    = "read"
	ActionReadAll = "read_all"
	ActionWrite   = "write"
	ActionClock   = "clock"
	ActionExport  = "export"
	ActionApprove = "approve"
)

type Permission struct {
	Resource string
	Action   string
}

// defaultPolicy is the fixed permission table. Staff own their attendance;
// admins review everyone's records but never clock in themselves.
var defaultPolicy = map[string][]Permission{
	domain.RoleStaff: {
		{ResourceAttendance, ActionRead},
		{ResourceAttendance, ActionClock},
		{ResourceTimelog, ActionRead},
		{ResourceTimelog, ActionExport},
		{ResourceTimelog, ActionWrite},
		{ResourceCorrection, ActionRead},
	},
	domain.RoleAdmin: {
		{ResourceTimelog, ActionRead},
		{ResourceTimelog, ActionReadAll},
		{ResourceTimelog, ActionExport},
		{ResourceTimelog, ActionWrite},
		{ResourceCorrection, ActionRead},
		{ResourceCorrection, ActionApprove},
		{ResourceStaff, ActionRead},
		{ResourceAudit, ActionRead},
	},
}
