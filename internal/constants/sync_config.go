package constants

// Tuning defaults. Each can be overridden by the environment variable of the
// same name (see the env helpers in internal/common).
const (
	// DefaultBootstrapLookbackDays is how far back historical bookings are
	// imported during the initial bootstrap.
	DefaultBootstrapLookbackDays = 365

	// DefaultCalendarWindowDays is the rolling availability window refreshed
	// wholesale on every calendar sync.
	DefaultCalendarWindowDays = 90

	// DefaultRatePushBatchDays caps how many date cells go into one Beds24
	// calendar update call.
	DefaultRatePushBatchDays = 30

	// DefaultSyncFanOutLimit bounds how many properties sync concurrently
	// during a scheduler tick.
	DefaultSyncFanOutLimit = 4

	// DefaultBookingsPageSize is the page size for booking fetches.
	DefaultBookingsPageSize = 100

	// TokenSafetyMarginSeconds: a cached access token is refreshed this many
	// seconds before its recorded expiry.
	TokenSafetyMarginSeconds = 60

	// SyncLockTTLSeconds bounds how long a per-hotel sync lock can be held
	// before it expires on its own.
	SyncLockTTLSeconds = 300

	// CreditFloor: below this remaining Beds24 credit the client refuses to
	// issue further calls in the current window.
	CreditFloor = 10
)

// Recovery thresholds
const (
	WarningErrorRate  = 0.05
	CriticalErrorRate = 0.25

	// StaleSyncMultiplier: a property is stale once its last successful sync
	// is older than this multiple of the expected interval.
	StaleSyncMultiplier = 2

	// BootstrapGraceHours: a connection stuck with bootstrap incomplete for
	// longer than this is flagged critical.
	BootstrapGraceHours = 24

	// CursorNudgeHours is how far the bookings cursor is moved back by the
	// least-disruptive cursor repair.
	CursorNudgeHours = 24
)
