package apperror

import "net/http"

// Shared sentinels for failures that do not belong to a single domain package.
var (
	ErrUnauthorized = New(CodeUnauthorized, "Authentication is required", http.StatusUnauthorized)
	ErrForbidden    = New(CodeForbidden, "You do not have permission to access this resource", http.StatusForbidden)
	ErrInvalidInput = New(CodeInvalidInput, "The provided input is invalid", http.StatusBadRequest)
	ErrInternal     = New(CodeInternalError, "An unexpected error occurred", http.StatusInternalServerError)

	ErrRateLimited = New(CodeRateLimited, "Too many requests", http.StatusTooManyRequests)

	// ErrRequestInFlight rejects a retry that arrives while the request
	// holding the same Idempotency-Key is still running.
	ErrRequestInFlight = New(CodeConflict, "A request with this idempotency key is still processing", http.StatusConflict)
)
