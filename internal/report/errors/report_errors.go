package reporterrors

import (
	"net/http"

	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
)

var (
	ErrInvalidMonth = apperror.New(
		apperror.CodeInvalidInput,
		"year and month must form a valid calendar month",
		http.StatusBadRequest,
	)

	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"date must be YYYY-MM-DD",
		http.StatusBadRequest,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)

	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you can only view your own time log",
		http.StatusForbidden,
	)
)
