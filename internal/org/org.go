// Package org resolves store ancestry in the organizational tree
// (department/store → region → brand).
package org

import (
	"context"
	"errors"

	"hxms_backend/platform/logger"
)

// Unit types stored in org_units.type.
const (
	TypeBrand      = "brand"
	TypeRegion     = "region"
	TypeStore      = "store"
	TypeDepartment = "department"
)

// ErrNotFound is returned when an org unit does not exist.
var ErrNotFound = errors.New("org unit not found")

// Unit is a node of the organizational tree.
type Unit struct {
	ID       int64
	Name     string
	Type     string
	ParentID *int64
}

// Ancestors is the derived attribution of a store. Either field may be nil.
type Ancestors struct {
	RegionID *int64 `json:"regionId,omitempty"`
	BrandID  *int64 `json:"brandId,omitempty"`
}

// UnitReader loads single org units.
type UnitReader interface {
	GetUnit(ctx context.Context, id int64) (Unit, error)
}

// Resolver walks parent pointers to attribute stores to regions and brands.
type Resolver struct {
	units UnitReader
	log   *logger.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(units UnitReader, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{units: units, log: log}
}

// ResolveAncestors returns the first region and the first brand found above storeID.
// Lookup failures and cyclic parent chains end the walk with whatever was found so far.
func (r *Resolver) ResolveAncestors(ctx context.Context, storeID int64) Ancestors {
	var out Ancestors
	if storeID <= 0 {
		return out
	}

	visited := map[int64]bool{}
	current := storeID
	for {
		if visited[current] {
			r.log.Warn("org unit cycle detected", "storeId", storeID, "unitId", current)
			return out
		}
		visited[current] = true

		unit, err := r.units.GetUnit(ctx, current)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				r.log.WithContext(ctx).Warn("org ancestor lookup failed", "storeId", storeID, "unitId", current, "error", err)
			}
			return out
		}

		// The store itself is not its own region or brand.
		if current != storeID {
			id := unit.ID
			switch unit.Type {
			case TypeRegion:
				if out.RegionID == nil {
					out.RegionID = &id
				}
			case TypeBrand:
				if out.BrandID == nil {
					out.BrandID = &id
				}
			}
		}

		if out.RegionID != nil && out.BrandID != nil {
			return out
		}
		if unit.ParentID == nil {
			return out
		}
		current = *unit.ParentID
	}
}
