package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Session protocol errors. These are caller bugs, not transient
	// conditions: retrying the same request will fail the same way.
	ErrCodeInvalidStudent   = "invalid_student"
	ErrCodeSessionNotFound  = "session_not_found"
	ErrCodeSessionClosed    = "session_closed"
	ErrCodeUnknownQuestion  = "unknown_question"
	ErrCodeInvalidSessionID = "invalid_session_id"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
