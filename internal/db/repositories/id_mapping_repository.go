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

// IdMappingRepo translates remote Beds24 ids to local primary keys
type IdMappingRepo struct {
	db *sqlx.DB
}

func NewIdMappingRepo(db *sqlx.DB) *IdMappingRepo {
	return &IdMappingRepo{db: db}
}

// GetLocalID returns the local id mapped to a remote entity, or "" when the
// entity has never been imported.
func (r *IdMappingRepo) GetLocalID(ctx context.Context, hotelID, kind, remoteID string) (string, error) {
	var localID string
	query := r.db.Rebind(`
		SELECT local_id FROM id_mappings
		WHERE hotel_id = ? AND entity_kind = ? AND remote_id = ?
	`)
	err := r.db.GetContext(ctx, &localID, query, hotelID, kind, remoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return localID, nil
}

// GetRemoteID is the reverse lookup: the remote id mapped to a local entity,
// or "" when the entity has no remote counterpart.
func (r *IdMappingRepo) GetRemoteID(ctx context.Context, hotelID, kind, localID string) (string, error) {
	var remoteID string
	query := r.db.Rebind(`
		SELECT remote_id FROM id_mappings
		WHERE hotel_id = ? AND entity_kind = ? AND local_id = ?
	`)
	err := r.db.GetContext(ctx, &remoteID, query, hotelID, kind, localID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return remoteID, nil
}

// Create records a new mapping. Conflicts on (hotel, kind, remote) are
// ignored so concurrent importers of the same entity stay idempotent.
func (r *IdMappingRepo) Create(ctx context.Context, hotelID, kind, remoteID, localID string) error {
	const query = `
		INSERT INTO id_mappings (id, hotel_id, entity_kind, remote_id, local_id, created_at)
		VALUES (:id, :hotel_id, :entity_kind, :remote_id, :local_id, :created_at)
		ON CONFLICT (hotel_id, entity_kind, remote_id) DO NOTHING
	`
	mapping := entities.IdMapping{
		ID:         uuid.NewString(),
		HotelID:    hotelID,
		EntityKind: kind,
		RemoteID:   remoteID,
		LocalID:    localID,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.db.NamedExecContext(ctx, query, &mapping)
	return err
}

// ListByKind returns all mappings of one kind for a hotel.
func (r *IdMappingRepo) ListByKind(ctx context.Context, hotelID, kind string) ([]entities.IdMapping, error) {
	var mappings []entities.IdMapping
	query := r.db.Rebind(`
		SELECT * FROM id_mappings WHERE hotel_id = ? AND entity_kind = ? ORDER BY created_at
	`)
	err := r.db.SelectContext(ctx, &mappings, query, hotelID, kind)
	return mappings, err
}

// DeleteOrphans removes mappings whose local row no longer exists in the
// given table. Used by data-integrity repair.
func (r *IdMappingRepo) DeleteOrphans(ctx context.Context, hotelID, kind, localTable string) (int64, error) {
	query := r.db.Rebind(`
		DELETE FROM id_mappings
		WHERE hotel_id = ? AND entity_kind = ?
		  AND local_id NOT IN (SELECT id FROM ` + localTable + `)
	`)
	res, err := r.db.ExecContext(ctx, query, hotelID, kind)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
