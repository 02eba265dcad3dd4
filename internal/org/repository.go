package org

import (
	"context"
	"errors"
	"fmt"

	"hxms_backend/platform/db"

	"github.com/jackc/pgx/v5"
)

// Repository reads org_units.
type Repository struct {
	db db.DBTX
}

// NewRepository creates an org unit repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

var _ UnitReader = (*Repository)(nil)

// GetUnit loads one org unit by id.
func (r *Repository) GetUnit(ctx context.Context, id int64) (Unit, error) {
	var u Unit
	err := r.db.QueryRow(ctx, `
		SELECT id, name, type, parent_id
		FROM org_units
		WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Type, &u.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Unit{}, ErrNotFound
	}
	if err != nil {
		return Unit{}, fmt.Errorf("get org unit: %w", err)
	}
	return u, nil
}
