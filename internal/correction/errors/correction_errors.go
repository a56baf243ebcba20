package correctionerrors

import (
	"net/http"

	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
)

var (
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you may only edit your own time records",
		http.StatusForbidden,
	)
	ErrApproveForbidden = apperror.New(
		apperror.CodeForbidden,
		"only administrators can approve corrections",
		http.StatusForbidden,
	)
	ErrCorrectionNotFound = apperror.New(
		apperror.CodeNotFound,
		"correction request not found",
		http.StatusNotFound,
	)
	ErrTimeRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"time record not found",
		http.StatusNotFound,
	)
	ErrAlreadyApproved = apperror.New(
		apperror.CodeInvalidState,
		"correction request is already approved",
		http.StatusConflict,
	)
	ErrConcurrentEdit = apperror.New(
		apperror.CodeConflict,
		"the time record was changed by another request, please retry",
		http.StatusConflict,
	)
	ErrInvalidCorrectionID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid correction id",
		http.StatusBadRequest,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"status must be pending or approved",
		http.StatusBadRequest,
	)
	ErrTargetRequired = apperror.New(
		apperror.CodeInvalidInput,
		"user_id or time_record_id is required",
		http.StatusBadRequest,
	)
)

var (
	ErrTargetNotStaff = apperror.New(
		apperror.CodeInvalidInput,
		"time records can only be edited for staff users",
		http.StatusBadRequest,
	)
	ErrDateMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"work_date does not match the time record",
		http.StatusBadRequest,
	)
)
