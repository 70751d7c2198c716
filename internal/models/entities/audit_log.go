package entities

import "time"

// Audit statuses
const (
	AuditStarted = "started"
	AuditSuccess = "success"
	AuditError   = "error"
	AuditPartial = "partial"
)

// AuditLogEntry is one append-only record per remote call or sync operation.
type AuditLogEntry struct {
	ID               string    `db:"id"`       // UUID
	Provider         string    `db:"provider"` // "beds24"
	Operation        string    `db:"operation"`
	Status           string    `db:"status"`
	HotelID          *string   `db:"hotel_id"` // nullable for system-wide operations
	RequestCost      int       `db:"request_cost"`
	CreditRemaining  int       `db:"credit_remaining"`
	DurationMs       int       `db:"duration_ms"`
	RecordsProcessed int       `db:"records_processed"`
	ErrorMessage     *string   `db:"error_message"`
	Metadata         string    `db:"metadata"` // free-form JSON
	CreatedAt        time.Time `db:"created_at"`
}
