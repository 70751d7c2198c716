package repositories

import (
	"context"
	"time"

	"roomworks/channelsync/internal/models/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AuditLogRepo appends and queries the append-only audit log
type AuditLogRepo struct {
	db *sqlx.DB
}

func NewAuditLogRepo(db *sqlx.DB) *AuditLogRepo {
	return &AuditLogRepo{db: db}
}

// Insert appends one audit entry. Entries are never updated or deleted.
func (r *AuditLogRepo) Insert(ctx context.Context, entry *entities.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Metadata == "" {
		entry.Metadata = "{}"
	}
	const query = `
		INSERT INTO audit_logs (id, provider, operation, status, hotel_id, request_cost,
			credit_remaining, duration_ms, records_processed, error_message, metadata, created_at)
		VALUES (:id, :provider, :operation, :status, :hotel_id, :request_cost,
			:credit_remaining, :duration_ms, :records_processed, :error_message, :metadata, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

// ErrorStats holds terminal-entry counts over a window.
type ErrorStats struct {
	Total  int `db:"total"`
	Errors int `db:"errors"`
}

// ErrorStatsSince counts terminal entries and errors since the given time,
// optionally scoped to one hotel. The "started" rows are excluded so a run in
// flight does not skew the rate.
func (r *AuditLogRepo) ErrorStatsSince(ctx context.Context, since time.Time, hotelID string) (*ErrorStats, error) {
	var stats ErrorStats
	var err error
	if hotelID != "" {
		query := r.db.Rebind(`
			SELECT COUNT(*) AS total,
			       COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0) AS errors
			FROM audit_logs
			WHERE created_at >= ? AND status <> 'started' AND hotel_id = ?
		`)
		err = r.db.GetContext(ctx, &stats, query, since, hotelID)
	} else {
		query := r.db.Rebind(`
			SELECT COUNT(*) AS total,
			       COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0) AS errors
			FROM audit_logs
			WHERE created_at >= ? AND status <> 'started'
		`)
		err = r.db.GetContext(ctx, &stats, query, since)
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// OperationStat aggregates one operation's performance over a window.
type OperationStat struct {
	Operation        string  `db:"operation"`
	Runs             int     `db:"runs"`
	Successes        int     `db:"successes"`
	AvgDurationMs    float64 `db:"avg_duration_ms"`
	TotalCost        int     `db:"total_cost"`
	RecordsProcessed int     `db:"records_processed"`
}

// OperationStatsSince returns windowed per-operation counts, latency, and
// API cost for the performance-metrics endpoint.
func (r *AuditLogRepo) OperationStatsSince(ctx context.Context, since time.Time) ([]OperationStat, error) {
	var stats []OperationStat
	query := r.db.Rebind(`
		SELECT operation,
		       COUNT(*) AS runs,
		       SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS successes,
		       AVG(duration_ms) AS avg_duration_ms,
		       SUM(request_cost) AS total_cost,
		       SUM(records_processed) AS records_processed
		FROM audit_logs
		WHERE created_at >= ? AND status <> 'started'
		GROUP BY operation
		ORDER BY operation
	`)
	err := r.db.SelectContext(ctx, &stats, query, since)
	return stats, err
}

// RecentByHotel returns the newest entries for a hotel, newest first.
func (r *AuditLogRepo) RecentByHotel(ctx context.Context, hotelID string, limit int) ([]entities.AuditLogEntry, error) {
	var entries []entities.AuditLogEntry
	query := r.db.Rebind(`
		SELECT * FROM audit_logs WHERE hotel_id = ? ORDER BY created_at DESC LIMIT ?
	`)
	err := r.db.SelectContext(ctx, &entries, query, hotelID, limit)
	return entries, err
}

// LastSuccessAt returns the timestamp of the most recent successful run of
// an operation for a hotel, or nil when it has never succeeded.
func (r *AuditLogRepo) LastSuccessAt(ctx context.Context, hotelID, operation string) (*time.Time, error) {
	var entries []entities.AuditLogEntry
	query := r.db.Rebind(`
		SELECT * FROM audit_logs
		WHERE hotel_id = ? AND operation = ? AND status IN ('success', 'partial')
		ORDER BY created_at DESC LIMIT 1
	`)
	if err := r.db.SelectContext(ctx, &entries, query, hotelID, operation); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0].CreatedAt, nil
}
