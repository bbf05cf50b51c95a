package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrSessionExpired     ErrCode = "SESSION_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Passcodes ─────────────────────────────────────────────────────
	ErrPasscodeActiveExists ErrCode = "PASSCODE_ACTIVE_EXISTS"
	ErrPasscodeNotFound     ErrCode = "PASSCODE_NOT_FOUND"
	ErrPasscodeUsed         ErrCode = "PASSCODE_USED"
	ErrPasscodeExpired      ErrCode = "PASSCODE_EXPIRED"
	ErrOwnershipMismatch    ErrCode = "OWNERSHIP_MISMATCH"
	ErrHallFull             ErrCode = "HALL_FULL"

	// ─── Exams ─────────────────────────────────────────────────────────
	ErrExamNotPublished ErrCode = "EXAM_NOT_PUBLISHED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrSessionNotFound:
		return "No active exam session. Please redeem a passcode first."
	case ErrSessionExpired:
		return "Your exam session has expired. Please contact a proctor."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPermissionDenied:
		return "Permission denied."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Passcodes ─────────────────────────────────────────────────────
	case ErrPasscodeActiveExists:
		return "The student already has an active passcode."
	case ErrPasscodeNotFound:
		return "Passcode not found."
	case ErrPasscodeUsed:
		return "This passcode has already been used."
	case ErrPasscodeExpired:
		return "This passcode has expired."
	case ErrOwnershipMismatch:
		return "This passcode was issued to a different candidate."
	case ErrHallFull:
		return "The selected exam hall has no free seats today."

	// ─── Exams ─────────────────────────────────────────────────────────
	case ErrExamNotPublished:
		return "This exam is not published."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
