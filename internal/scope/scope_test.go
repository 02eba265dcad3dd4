package scope

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hxms_backend/internal/org"
	"hxms_backend/internal/staff"
)

func id(v int64) *int64 { return &v }

type fakeEmployees map[int64]staff.Employee

func (f fakeEmployees) GetByUserID(_ context.Context, userID int64) (staff.Employee, error) {
	e, ok := f[userID]
	if !ok {
		return staff.Employee{}, staff.ErrNotFound
	}
	return e, nil
}

type brokenEmployees struct{}

func (brokenEmployees) GetByUserID(context.Context, int64) (staff.Employee, error) {
	return staff.Employee{}, errors.New("db down")
}

type fixedAncestors org.Ancestors

func (f fixedAncestors) ResolveAncestors(context.Context, int64) org.Ancestors {
	return org.Ancestors(f)
}

func TestComputeResolutionOrder(t *testing.T) {
	full := &staff.Employee{
		ID:           42,
		StoreID:      id(7),
		DepartmentID: id(70),
		RegionID:     id(2),
		BrandID:      id(1),
		LinkedStores: []int64{8},
	}

	cases := []struct {
		name  string
		roles RoleSet
		emp   *staff.Employee
		want  Level
	}{
		{"admin wins over everything", RoleSet{RoleAdmin: true, RoleSalesRep: true}, full, LevelAll},
		{"no employee falls back to self", RoleSet{RoleStoreDirector: true}, nil, LevelSelf},
		{"sales rep before manager", RoleSet{RoleSalesRep: true, RoleSalesManager: true}, full, LevelSelf},
		{"sales manager gets department", RoleSet{RoleSalesManager: true}, full, LevelDepartment},
		{"sales manager without department gets stores", RoleSet{RoleSalesManager: true}, &staff.Employee{ID: 1, StoreID: id(7)}, LevelStore},
		{"region manager", RoleSet{RoleRegionManager: true}, full, LevelRegion},
		{"brand manager", RoleSet{RoleBrandManager: true}, full, LevelBrand},
		{"store director gets stores", RoleSet{RoleStoreDirector: true}, full, LevelStore},
		{"storeless employee falls to region", RoleSet{RoleStaff: true}, &staff.Employee{ID: 1, RegionID: id(2)}, LevelRegion},
		{"storeless employee falls to brand", RoleSet{}, &staff.Employee{ID: 1, BrandID: id(1)}, LevelBrand},
		{"bare employee is self", RoleSet{}, &staff.Employee{ID: 1}, LevelSelf},
	}

	for _, tc := range cases {
		if got := Compute(tc.roles, tc.emp); got.Level != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got.Level)
		}
	}
}

func TestComputeDepartmentCarriesStores(t *testing.T) {
	emp := &staff.Employee{ID: 5, StoreID: id(7), DepartmentID: id(70), LinkedStores: []int64{8}}
	got := Compute(RoleSet{RoleSalesManager: true}, emp)
	if got.DepartmentID != 70 || len(got.StoreIDs) != 2 {
		t.Fatalf("unexpected department scope: %+v", got)
	}
}

func TestResolverMergesEmployeeRoleAndAliases(t *testing.T) {
	employees := fakeEmployees{
		9: {ID: 42, Role: "销售顾问", StoreID: id(7)},
	}
	r := NewResolver(employees, nil, nil)

	p, err := r.Resolve(context.Background(), Actor{UserID: 9})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Scope.Level != LevelSelf || p.Scope.EmployeeID != 42 {
		t.Fatalf("expected self scope for employee 42, got %+v", p.Scope)
	}
	if p.EmployeeID() != 42 {
		t.Fatalf("expected employee id 42, got %d", p.EmployeeID())
	}
}

func TestResolverWithoutEmployee(t *testing.T) {
	r := NewResolver(fakeEmployees{}, nil, nil)

	p, err := r.Resolve(context.Background(), Actor{UserID: 9, Roles: []string{"超级管理员"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Scope.Level != LevelAll {
		t.Fatalf("expected admin alias to yield all, got %s", p.Scope.Level)
	}

	s, err := r.GetScope(context.Background(), Actor{UserID: 9, Roles: []string{"store_director"}})
	if err != nil {
		t.Fatalf("get scope: %v", err)
	}
	if s.Level != LevelSelf || s.EmployeeID != 0 {
		t.Fatalf("expected empty self scope, got %+v", s)
	}
}

func TestResolverFillsRegionFromStore(t *testing.T) {
	employees := fakeEmployees{9: {ID: 3, Role: "region_manager", StoreID: id(7)}}
	r := NewResolver(employees, fixedAncestors{RegionID: id(2), BrandID: id(1)}, nil)

	s, err := r.GetScope(context.Background(), Actor{UserID: 9})
	if err != nil {
		t.Fatalf("get scope: %v", err)
	}
	if s.Level != LevelRegion || s.RegionID != 2 {
		t.Fatalf("expected region 2, got %+v", s)
	}
}

func TestResolverPropagatesLookupErrors(t *testing.T) {
	r := NewResolver(brokenEmployees{}, nil, nil)
	if _, err := r.Resolve(context.Background(), Actor{UserID: 1}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPredicate(t *testing.T) {
	cols := Columns{Store: "l.store_id", Region: "l.region_id", Brand: "l.brand_id", Department: "l.department_id", Owners: []string{"l.created_by", "l.sales_consultant_id"}}

	cases := []struct {
		name     string
		scope    Scope
		clause   string
		argCount int
		next     int
	}{
		{"all", All(), "", 0, 3},
		{"self", Self(42), "(l.created_by = $3 OR l.sales_consultant_id = $3)", 1, 4},
		{"self without employee", Self(0), "FALSE", 0, 3},
		{"department", Department(70, []int64{7, 8}), "(l.department_id = $3 OR l.store_id = ANY($4))", 2, 5},
		{"region", Region(2), "l.region_id = $3", 1, 4},
		{"brand", Brand(1), "l.brand_id = $3", 1, 4},
		{"stores", Stores([]int64{7}), "l.store_id = ANY($3)", 1, 4},
		{"empty stores", Stores(nil), "FALSE", 0, 3},
	}

	for _, tc := range cases {
		clause, args, next := tc.scope.Predicate(cols, 3)
		if clause != tc.clause {
			t.Fatalf("%s: expected clause %q, got %q", tc.name, tc.clause, clause)
		}
		if len(args) != tc.argCount {
			t.Fatalf("%s: expected %d args, got %d", tc.name, tc.argCount, len(args))
		}
		if next != tc.next {
			t.Fatalf("%s: expected next index %d, got %d", tc.name, tc.next, next)
		}
	}
}

func TestPredicateWithoutDepartmentColumn(t *testing.T) {
	clause, _, _ := Department(70, []int64{7}).Predicate(Columns{Store: "c.store_id"}, 1)
	if clause != "(c.store_id = ANY($1))" {
		t.Fatalf("unexpected clause %q", clause)
	}
}

func TestCoversMatchesPredicateSemantics(t *testing.T) {
	rec := Record{StoreID: id(7), RegionID: id(2), BrandID: id(1), DepartmentID: id(70), Owners: []int64{42}}

	cases := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{"all", All(), true},
		{"own record", Self(42), true},
		{"someone else's record", Self(43), false},
		{"no employee", Self(0), false},
		{"department match", Department(70, nil), true},
		{"department via store", Department(71, []int64{7}), true},
		{"department miss", Department(71, []int64{8}), false},
		{"region", Region(2), true},
		{"other region", Region(3), false},
		{"brand", Brand(1), true},
		{"store", Stores([]int64{6, 7}), true},
		{"other store", Stores([]int64{6}), false},
	}

	for _, tc := range cases {
		if got := tc.scope.Covers(rec); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	if err := os.WriteFile(path, []byte("super_admin: admin\n销售主管: Sales_Manager\n"), 0o600); err != nil {
		t.Fatalf("write aliases: %v", err)
	}

	aliases, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("load aliases: %v", err)
	}
	if role, ok := aliases.Parse("super_admin"); !ok || role != RoleAdmin {
		t.Fatalf("expected super_admin alias, got %q", role)
	}
	if role, ok := aliases.Parse("销售主管"); !ok || role != RoleSalesManager {
		t.Fatalf("expected 销售主管 alias, got %q", role)
	}
	if role, ok := aliases.Parse("店总"); !ok || role != RoleStoreDirector {
		t.Fatalf("expected built-in alias to survive, got %q", role)
	}
}

func TestLoadAliasesRejectsUnknownRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	if err := os.WriteFile(path, []byte("boss: overlord\n"), 0o600); err != nil {
		t.Fatalf("write aliases: %v", err)
	}
	_, err := LoadAliases(path)
	if err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Fatalf("expected unknown role error, got %v", err)
	}
}

func TestLoadAliasesEmptyPath(t *testing.T) {
	aliases, err := LoadAliases("")
	if err != nil {
		t.Fatalf("load aliases: %v", err)
	}
	if _, ok := aliases.Parse("unknown"); ok {
		t.Fatalf("expected unknown code to be ignored")
	}
	if role, ok := aliases.Parse("ADMIN"); !ok || role != RoleAdmin {
		t.Fatalf("expected canonical codes to be case-insensitive")
	}
}
