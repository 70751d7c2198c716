package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomworks/channelsync/internal/models/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SyncStateRepo manages the per-property sync cursor rows
type SyncStateRepo struct {
	db *sqlx.DB
}

func NewSyncStateRepo(db *sqlx.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// Get returns the sync state for a hotel, or nil when none exists.
func (r *SyncStateRepo) Get(ctx context.Context, hotelID string) (*entities.SyncState, error) {
	var state entities.SyncState
	query := r.db.Rebind(`SELECT * FROM sync_states WHERE hotel_id = ?`)
	err := r.db.GetContext(ctx, &state, query, hotelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Ensure creates the sync state row for a (hotel, property) pair if it does
// not exist yet, and returns the current row either way.
func (r *SyncStateRepo) Ensure(ctx context.Context, hotelID, propertyID string) (*entities.SyncState, error) {
	const query = `
		INSERT INTO sync_states (id, hotel_id, remote_property_id, bootstrap_completed, sync_enabled, settings, updated_at)
		VALUES (:id, :hotel_id, :remote_property_id, :bootstrap_completed, :sync_enabled, :settings, :updated_at)
		ON CONFLICT (hotel_id, remote_property_id) DO NOTHING
	`
	state := entities.SyncState{
		ID:               uuid.NewString(),
		HotelID:          hotelID,
		RemotePropertyID: propertyID,
		Settings:         "{}",
		UpdatedAt:        time.Now().UTC(),
	}
	if _, err := r.db.NamedExecContext(ctx, query, &state); err != nil {
		return nil, err
	}
	return r.Get(ctx, hotelID)
}

// MarkBootstrapCompleted flips the bootstrap flag and enables sync.
func (r *SyncStateRepo) MarkBootstrapCompleted(ctx context.Context, hotelID string) error {
	query := r.db.Rebind(`
		UPDATE sync_states
		SET bootstrap_completed = ?,
		    bootstrap_completed_at = ?,
		    sync_enabled = ?,
		    updated_at = ?
		WHERE hotel_id = ?
	`)
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, true, now, true, now, hotelID)
	return err
}

// AdvanceBookingsCursor moves the delta cursor forward, never backward.
// Monotonicity is enforced in SQL so racing writers cannot regress it.
func (r *SyncStateRepo) AdvanceBookingsCursor(ctx context.Context, hotelID string, ts time.Time) error {
	query := r.db.Rebind(`
		UPDATE sync_states
		SET bookings_modified_from = CASE
		        WHEN bookings_modified_from IS NULL OR bookings_modified_from < ? THEN ?
		        ELSE bookings_modified_from
		    END,
		    updated_at = ?
		WHERE hotel_id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, ts, ts, time.Now().UTC(), hotelID)
	return err
}

// SetBookingsCursor overwrites the cursor outright. Recovery only; delta sync
// must go through AdvanceBookingsCursor.
func (r *SyncStateRepo) SetBookingsCursor(ctx context.Context, hotelID string, ts *time.Time) error {
	query := r.db.Rebind(`
		UPDATE sync_states SET bookings_modified_from = ?, updated_at = ? WHERE hotel_id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, ts, time.Now().UTC(), hotelID)
	return err
}

// SetCalendarWindow records the bounds of the last full calendar refresh.
func (r *SyncStateRepo) SetCalendarWindow(ctx context.Context, hotelID string, start, end time.Time) error {
	query := r.db.Rebind(`
		UPDATE sync_states SET calendar_start = ?, calendar_end = ?, updated_at = ? WHERE hotel_id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, start, end, time.Now().UTC(), hotelID)
	return err
}

// SetEnabled toggles delta sync for a property.
func (r *SyncStateRepo) SetEnabled(ctx context.Context, hotelID string, enabled bool) error {
	query := r.db.Rebind(`
		UPDATE sync_states SET sync_enabled = ?, updated_at = ? WHERE hotel_id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, enabled, time.Now().UTC(), hotelID)
	return err
}

// Reset clears the cursors so the next delta run re-fetches its full window.
// The bootstrap flag is preserved: resetting state never forces a re-import.
func (r *SyncStateRepo) Reset(ctx context.Context, hotelID string) error {
	query := r.db.Rebind(`
		UPDATE sync_states
		SET bookings_modified_from = NULL,
		    calendar_start = NULL,
		    calendar_end = NULL,
		    updated_at = ?
		WHERE hotel_id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), hotelID)
	return err
}

// ListAll returns every sync state row, enabled or not.
func (r *SyncStateRepo) ListAll(ctx context.Context) ([]entities.SyncState, error) {
	var states []entities.SyncState
	err := r.db.SelectContext(ctx, &states, `SELECT * FROM sync_states ORDER BY hotel_id`)
	return states, err
}

// ListEnabled returns sync states for every property with sync switched on.
func (r *SyncStateRepo) ListEnabled(ctx context.Context) ([]entities.SyncState, error) {
	var states []entities.SyncState
	query := r.db.Rebind(`SELECT * FROM sync_states WHERE sync_enabled = ? ORDER BY hotel_id`)
	err := r.db.SelectContext(ctx, &states, query, true)
	return states, err
}
