package attendanceerrors

import (
	"net/http"

	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
)

var (
	ErrStaffOnly = apperror.New(
		apperror.CodeForbidden,
		"attendance actions are available to staff only",
		http.StatusForbidden,
	)
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeConflict,
		"already clocked in today",
		http.StatusConflict,
	)
	ErrAlreadyClockedOut = apperror.New(
		apperror.CodeInvalidState,
		"already clocked out today",
		http.StatusConflict,
	)
	ErrNoOpenRecord = apperror.New(
		apperror.CodeInvalidState,
		"not clocked in today",
		http.StatusConflict,
	)
	ErrAlreadyOnBreak = apperror.New(
		apperror.CodeConflict,
		"a break is already in progress",
		http.StatusConflict,
	)
	ErrNotOnBreak = apperror.New(
		apperror.CodeInvalidState,
		"no break in progress",
		http.StatusConflict,
	)
)
