// Package scope computes which records an actor may see or modify and turns
// that into SQL predicates and write checks.
package scope

import (
	"fmt"
	"strings"

	"hxms_backend/platform/httpkit"
)

// Level tags the variant of a Scope.
type Level string

const (
	LevelAll        Level = "all"
	LevelBrand      Level = "brand"
	LevelRegion     Level = "region"
	LevelStore      Level = "store"
	LevelDepartment Level = "department"
	LevelSelf       Level = "self"
)

// Actor is the authenticated caller as delivered by the auth middleware.
type Actor struct {
	UserID int64    `json:"userId"`
	Roles  []string `json:"roles"`
}

// Scope is a tagged union; only the fields relevant to Level are set.
type Scope struct {
	Level        Level   `json:"level"`
	EmployeeID   int64   `json:"employeeId,omitempty"`
	DepartmentID int64   `json:"departmentId,omitempty"`
	RegionID     int64   `json:"regionId,omitempty"`
	BrandID      int64   `json:"brandId,omitempty"`
	StoreIDs     []int64 `json:"storeIds,omitempty"`
}

// All is the unrestricted scope.
func All() Scope { return Scope{Level: LevelAll} }

// Self restricts to records created or owned by employeeID. Zero matches nothing.
func Self(employeeID int64) Scope { return Scope{Level: LevelSelf, EmployeeID: employeeID} }

// Department restricts to a department or any of the given stores.
func Department(departmentID int64, stores []int64) Scope {
	return Scope{Level: LevelDepartment, DepartmentID: departmentID, StoreIDs: stores}
}

// Region restricts to one region.
func Region(id int64) Scope { return Scope{Level: LevelRegion, RegionID: id} }

// Brand restricts to one brand.
func Brand(id int64) Scope { return Scope{Level: LevelBrand, BrandID: id} }

// Stores restricts to a set of stores.
func Stores(ids []int64) Scope { return Scope{Level: LevelStore, StoreIDs: ids} }

// SingleStore returns the store when the scope pins exactly one.
func (s Scope) SingleStore() (int64, bool) {
	if s.Level == LevelStore && len(s.StoreIDs) == 1 {
		return s.StoreIDs[0], true
	}
	return 0, false
}

// Columns names the attribution columns of a table for predicate building.
// Empty names are treated as absent.
type Columns struct {
	Store      string
	Region     string
	Brand      string
	Department string
	// Owners are the columns a self-scoped actor is matched against (any of them).
	Owners []string
}

// Predicate renders the scope as a SQL boolean expression using positional
// parameters starting at argIdx. It returns the clause (empty for LevelAll),
// its arguments and the next free parameter index.
func (s Scope) Predicate(cols Columns, argIdx int) (string, []interface{}, int) {
	switch s.Level {
	case LevelAll:
		return "", nil, argIdx
	case LevelBrand:
		return columnEquals(cols.Brand, s.BrandID, argIdx)
	case LevelRegion:
		return columnEquals(cols.Region, s.RegionID, argIdx)
	case LevelStore:
		return columnIn(cols.Store, s.StoreIDs, argIdx)
	case LevelDepartment:
		parts := make([]string, 0, 2)
		args := make([]interface{}, 0, 2)
		if cols.Department != "" && s.DepartmentID != 0 {
			parts = append(parts, fmt.Sprintf("%s = $%d", cols.Department, argIdx))
			args = append(args, s.DepartmentID)
			argIdx++
		}
		if cols.Store != "" && len(s.StoreIDs) > 0 {
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", cols.Store, argIdx))
			args = append(args, s.StoreIDs)
			argIdx++
		}
		if len(parts) == 0 {
			return "FALSE", nil, argIdx
		}
		return "(" + strings.Join(parts, " OR ") + ")", args, argIdx
	default:
		if s.EmployeeID == 0 || len(cols.Owners) == 0 {
			return "FALSE", nil, argIdx
		}
		parts := make([]string, 0, len(cols.Owners))
		for _, col := range cols.Owners {
			parts = append(parts, fmt.Sprintf("%s = $%d", col, argIdx))
		}
		return "(" + strings.Join(parts, " OR ") + ")", []interface{}{s.EmployeeID}, argIdx + 1
	}
}

func columnEquals(col string, id int64, argIdx int) (string, []interface{}, int) {
	if col == "" || id == 0 {
		return "FALSE", nil, argIdx
	}
	return fmt.Sprintf("%s = $%d", col, argIdx), []interface{}{id}, argIdx + 1
}

func columnIn(col string, ids []int64, argIdx int) (string, []interface{}, int) {
	if col == "" || len(ids) == 0 {
		return "FALSE", nil, argIdx
	}
	return fmt.Sprintf("%s = ANY($%d)", col, argIdx), []interface{}{ids}, argIdx + 1
}

// Record is the attribution of a single row for write checks.
type Record struct {
	StoreID      *int64
	RegionID     *int64
	BrandID      *int64
	DepartmentID *int64
	Owners       []int64
}

// Covers reports whether the scope includes rec. It mirrors Predicate.
func (s Scope) Covers(rec Record) bool {
	switch s.Level {
	case LevelAll:
		return true
	case LevelBrand:
		return matches(rec.BrandID, s.BrandID)
	case LevelRegion:
		return matches(rec.RegionID, s.RegionID)
	case LevelStore:
		return rec.StoreID != nil && contains(s.StoreIDs, *rec.StoreID)
	case LevelDepartment:
		if matches(rec.DepartmentID, s.DepartmentID) {
			return true
		}
		return rec.StoreID != nil && contains(s.StoreIDs, *rec.StoreID)
	default:
		return s.EmployeeID != 0 && contains(rec.Owners, s.EmployeeID)
	}
}

func matches(v *int64, id int64) bool {
	return v != nil && id != 0 && *v == id
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ActorFromIdentity converts the authenticated HTTP identity into an Actor.
func ActorFromIdentity(id httpkit.Identity) Actor {
	return Actor{UserID: id.UserID(), Roles: id.Roles()}
}
