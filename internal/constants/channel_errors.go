package constants

// Channel Provider Error Codes
// These constants define specific error scenarios for the Beds24 channel API

// Credential-related errors
const (
	ErrCodeAuthExpired    = "AUTH_EXPIRED"
	ErrCodeInvalidToken   = "INVALID_TOKEN"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeNetworkError   = "NETWORK_ERROR"
	ErrCodeClientError    = "CLIENT_ERROR"
	ErrCodeRetryableError = "RETRYABLE_ERROR"
)

// Sync precondition errors
const (
	ErrCodeAlreadyBootstrapped = "ALREADY_BOOTSTRAPPED"
	ErrCodeNotBootstrapped     = "NOT_BOOTSTRAPPED"
	ErrCodeSyncDisabled        = "SYNC_DISABLED"
	ErrCodeSyncInProgress      = "SYNC_IN_PROGRESS"
	ErrCodeConnectionNotFound  = "CONNECTION_NOT_FOUND"
	ErrCodeConnectionDisabled  = "CONNECTION_DISABLED"
	ErrCodeSyncStale           = "SYNC_STALE"
)

// Data errors
const (
	ErrCodePartialFailure   = "PARTIAL_FAILURE"
	ErrCodeInvalidDateRange = "INVALID_DATE_RANGE"
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
)

// Error Messages
// Human-readable messages corresponding to error codes

var ChannelErrorMessages = map[string]string{
	// Credentials
	ErrCodeAuthExpired:    "The Beds24 refresh token has expired or been revoked. Re-authorization is required",
	ErrCodeInvalidToken:   "The Beds24 access token was rejected",
	ErrCodeRateLimited:    "Beds24 API credit limit exceeded. Please try again later",
	ErrCodeNetworkError:   "Unable to reach the Beds24 API. Please check connectivity",
	ErrCodeClientError:    "Beds24 rejected the request as malformed",
	ErrCodeRetryableError: "Beds24 returned a server error. The operation may be retried",

	// Preconditions
	ErrCodeAlreadyBootstrapped: "Initial import has already completed for this property",
	ErrCodeNotBootstrapped:     "Initial import has not completed for this property yet",
	ErrCodeSyncDisabled:        "Synchronization is disabled for this property",
	ErrCodeSyncInProgress:      "A sync is already running for this property",
	ErrCodeConnectionNotFound:  "No Beds24 connection found for this hotel",
	ErrCodeConnectionDisabled:  "The Beds24 connection for this hotel is disabled",
	ErrCodeSyncStale:           "The last successful sync is older than the expected interval",

	// Data
	ErrCodePartialFailure:   "Some records synced successfully, others failed",
	ErrCodeInvalidDateRange: "The date range is invalid",
	ErrCodeInvalidPayload:   "The Beds24 payload could not be parsed",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ChannelErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
