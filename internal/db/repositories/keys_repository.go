package repositories

import (
	"context"

	"roomworks/channelsync/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	query := r.db.Rebind(`SELECT id, status FROM api_keys WHERE id = ?`)
	err := r.db.QueryRowxContext(ctx, query, key).StructScan(&keyRes)

	if err != nil {
		return nil, err
	}

	return &keyRes, nil
}
