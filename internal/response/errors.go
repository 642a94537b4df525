package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz session ──────────────────────────────────────────────────
	ErrNotCleared         ErrCode = "IDENTITY_NOT_CLEARED"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrQuizNotInProgress  ErrCode = "QUIZ_NOT_IN_PROGRESS"
	ErrQuizNotInReview    ErrCode = "QUIZ_NOT_IN_REVIEW"
	ErrNotCurrentQuestion ErrCode = "NOT_CURRENT_QUESTION"

	// ─── Proctoring ────────────────────────────────────────────────────
	ErrInsecureContext     ErrCode = "INSECURE_CONTEXT"
	ErrCameraUnavailable   ErrCode = "CAMERA_UNAVAILABLE"
	ErrVerificationFailed  ErrCode = "IDENTITY_VERIFICATION_FAILED"
	ErrProctoringViolation ErrCode = "PROCTORING_VIOLATION"

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
		return "Username or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is not valid."
	case ErrInvalidPayload:
		return "The request payload is not valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Quiz session ──────────────────────────────────────────────────
	case ErrNotCleared:
		return "Identity verification must pass before starting a quiz."
	case ErrNoQuestions:
		return "No questions are available for this category."
	case ErrQuizNotInProgress:
		return "There is no quiz in progress."
	case ErrQuizNotInReview:
		return "The quiz is not in review mode."
	case ErrNotCurrentQuestion:
		return "That is not the current question."

	// ─── Proctoring ────────────────────────────────────────────────────
	case ErrInsecureContext:
		return "Camera access requires a secure connection."
	case ErrCameraUnavailable:
		return "The camera is unavailable or permission was denied."
	case ErrVerificationFailed:
		return "Identity verification failed. Please try again."
	case ErrProctoringViolation:
		return "A proctoring violation was detected. The quiz has been submitted."

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
