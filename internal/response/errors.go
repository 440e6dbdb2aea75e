package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials   ErrCode = "INVALID_CREDENTIALS"
	ErrAlreadyAuthenticated ErrCode = "ALREADY_AUTHENTICATED"
	ErrSessionInvalidated   ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired        ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid         ErrCode = "TOKEN_INVALID"
	ErrTokenExpired         ErrCode = "TOKEN_EXPIRED"
	ErrEmailTaken           ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrIDConflict     ErrCode = "ID_CONFLICT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrLockBusy ErrCode = "LOCK_BUSY"

	// ─── Problem store ─────────────────────────────────────────────────
	ErrStoreReadFailed  ErrCode = "STORE_READ_FAILED"
	ErrStoreWriteFailed ErrCode = "STORE_WRITE_FAILED"
	ErrResequenceFailed ErrCode = "RESEQUENCE_FAILED"

	// ─── Code execution ────────────────────────────────────────────────
	ErrUnsupportedLanguage ErrCode = "UNSUPPORTED_LANGUAGE"
	ErrRunnerUnavailable   ErrCode = "RUNNER_UNAVAILABLE"

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
		return "Incorrect email or password."
	case ErrAlreadyAuthenticated:
		return "You are already signed in."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrEmailTaken:
		return "An account with this email already exists."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid problem ID. IDs are positive integers."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrIDConflict:
		return "This ID is already used by another problem."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrLockBusy:
		return "The problem list is being updated. Please try again."

	// ─── Problem store ─────────────────────────────────────────────────
	case ErrStoreReadFailed:
		return "Problems could not be loaded."
	case ErrStoreWriteFailed:
		return "The change could not be saved."
	case ErrResequenceFailed:
		return "The change was saved but renumbering stopped part way."

	// ─── Code execution ────────────────────────────────────────────────
	case ErrUnsupportedLanguage:
		return "This language is not supported."
	case ErrRunnerUnavailable:
		return "The code runner is unavailable. Please try again later."

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
