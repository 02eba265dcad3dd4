package org

import (
	"context"
	"errors"
	"testing"
)

type fakeUnits map[int64]Unit

func (f fakeUnits) GetUnit(_ context.Context, id int64) (Unit, error) {
	u, ok := f[id]
	if !ok {
		return Unit{}, ErrNotFound
	}
	return u, nil
}

type failingUnits struct{}

func (failingUnits) GetUnit(context.Context, int64) (Unit, error) {
	return Unit{}, errors.New("connection reset")
}

func ptr(v int64) *int64 { return &v }

func TestResolveAncestorsWalksToBrand(t *testing.T) {
	units := fakeUnits{
		1: {ID: 1, Type: TypeBrand},
		2: {ID: 2, Type: TypeRegion, ParentID: ptr(1)},
		7: {ID: 7, Type: TypeStore, ParentID: ptr(2)},
	}

	got := NewResolver(units, nil).ResolveAncestors(context.Background(), 7)
	if got.RegionID == nil || *got.RegionID != 2 {
		t.Fatalf("expected region 2, got %v", got.RegionID)
	}
	if got.BrandID == nil || *got.BrandID != 1 {
		t.Fatalf("expected brand 1, got %v", got.BrandID)
	}
}

func TestResolveAncestorsReturnsPartialResult(t *testing.T) {
	units := fakeUnits{
		1: {ID: 1, Type: TypeBrand},
		7: {ID: 7, Type: TypeStore, ParentID: ptr(1)},
	}

	got := NewResolver(units, nil).ResolveAncestors(context.Background(), 7)
	if got.RegionID != nil {
		t.Fatalf("expected no region, got %d", *got.RegionID)
	}
	if got.BrandID == nil || *got.BrandID != 1 {
		t.Fatalf("expected brand 1, got %v", got.BrandID)
	}
}

func TestResolveAncestorsTerminatesOnCycle(t *testing.T) {
	units := fakeUnits{
		2: {ID: 2, Type: TypeRegion, ParentID: ptr(3)},
		3: {ID: 3, Type: TypeStore, ParentID: ptr(7)},
		7: {ID: 7, Type: TypeStore, ParentID: ptr(2)},
	}

	got := NewResolver(units, nil).ResolveAncestors(context.Background(), 7)
	if got.RegionID == nil || *got.RegionID != 2 {
		t.Fatalf("expected region 2, got %v", got.RegionID)
	}
	if got.BrandID != nil {
		t.Fatalf("expected no brand, got %d", *got.BrandID)
	}
}

func TestResolveAncestorsToleratesMissingAndFailingLookups(t *testing.T) {
	if got := NewResolver(fakeUnits{}, nil).ResolveAncestors(context.Background(), 99); got.RegionID != nil || got.BrandID != nil {
		t.Fatalf("expected empty ancestors for unknown store, got %+v", got)
	}
	if got := NewResolver(failingUnits{}, nil).ResolveAncestors(context.Background(), 7); got.RegionID != nil || got.BrandID != nil {
		t.Fatalf("expected empty ancestors on lookup failure, got %+v", got)
	}
	if got := NewResolver(fakeUnits{}, nil).ResolveAncestors(context.Background(), 0); got.RegionID != nil || got.BrandID != nil {
		t.Fatalf("expected empty ancestors for zero store, got %+v", got)
	}
}
