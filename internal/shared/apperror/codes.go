package apperror

// Codes surfaced as error.code in the response envelope.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE" // transition not allowed from the current attendance or request state
	CodeRateLimited  = "RATE_LIMITED"

	CodeInternalError = "INTERNAL_ERROR"
)
