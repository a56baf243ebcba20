package usererrors

import (
	"net/http"

	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrUserAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"user with the same email already exists",
		http.StatusConflict,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
)
