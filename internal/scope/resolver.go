package scope

import (
	"context"
	"errors"
	"fmt"

	"hxms_backend/internal/org"
	"hxms_backend/internal/staff"
)

// EmployeeReader loads the employee behind an authenticated user.
type EmployeeReader interface {
	GetByUserID(ctx context.Context, userID int64) (staff.Employee, error)
}

// AncestorResolver derives region and brand from a store.
type AncestorResolver interface {
	ResolveAncestors(ctx context.Context, storeID int64) org.Ancestors
}

// Principal is everything derived from an Actor in one pass.
type Principal struct {
	Actor    Actor
	Roles    RoleSet
	Employee *staff.Employee
	Scope    Scope
}

// EmployeeID returns the actor's employee id, or 0 when the actor has none.
func (p Principal) EmployeeID() int64 {
	if p.Employee == nil {
		return 0
	}
	return p.Employee.ID
}

// Resolver computes Principals.
type Resolver struct {
	employees EmployeeReader
	ancestors AncestorResolver
	aliases   Aliases
}

// NewResolver creates a Resolver. ancestors may be nil; aliases nil means built-in.
func NewResolver(employees EmployeeReader, ancestors AncestorResolver, aliases Aliases) *Resolver {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Resolver{employees: employees, ancestors: ancestors, aliases: aliases}
}

// GetScope returns only the scope of actor.
func (r *Resolver) GetScope(ctx context.Context, actor Actor) (Scope, error) {
	p, err := r.Resolve(ctx, actor)
	if err != nil {
		return Scope{}, err
	}
	return p.Scope, nil
}

// Resolve loads the actor's employee record and evaluates roles in priority order.
func (r *Resolver) Resolve(ctx context.Context, actor Actor) (Principal, error) {
	p := Principal{Actor: actor, Roles: r.aliases.ParseRoles(actor.Roles...)}

	if actor.UserID != 0 && r.employees != nil {
		emp, err := r.employees.GetByUserID(ctx, actor.UserID)
		switch {
		case err == nil:
			r.fillAttribution(ctx, &emp)
			p.Employee = &emp
			if role, ok := r.aliases.Parse(emp.Role); ok {
				p.Roles[role] = true
			}
		case errors.Is(err, staff.ErrNotFound):
		default:
			return Principal{}, fmt.Errorf("resolve actor employee: %w", err)
		}
	}

	p.Scope = Compute(p.Roles, p.Employee)
	return p, nil
}

func (r *Resolver) fillAttribution(ctx context.Context, emp *staff.Employee) {
	if r.ancestors == nil || emp.StoreID == nil || (emp.RegionID != nil && emp.BrandID != nil) {
		return
	}
	anc := r.ancestors.ResolveAncestors(ctx, *emp.StoreID)
	if emp.RegionID == nil {
		emp.RegionID = anc.RegionID
	}
	if emp.BrandID == nil {
		emp.BrandID = anc.BrandID
	}
}

// Compute picks the scope for a role set and optional employee. First match wins:
// admin, no employee, sales rep, sales manager with a department, region
// manager, brand manager, linked stores, then region, brand and self.
func Compute(roles RoleSet, emp *staff.Employee) Scope {
	if roles.Has(RoleAdmin) {
		return All()
	}
	if emp == nil {
		return Self(0)
	}
	if roles.Has(RoleSalesRep) {
		return Self(emp.ID)
	}
	if roles.Has(RoleSalesManager) && emp.DepartmentID != nil {
		return Department(*emp.DepartmentID, emp.Stores())
	}
	if roles.Has(RoleRegionManager) && emp.RegionID != nil {
		return Region(*emp.RegionID)
	}
	if roles.Has(RoleBrandManager) && emp.BrandID != nil {
		return Brand(*emp.BrandID)
	}
	if stores := emp.Stores(); len(stores) > 0 {
		return Stores(stores)
	}
	if emp.RegionID != nil {
		return Region(*emp.RegionID)
	}
	if emp.BrandID != nil {
		return Brand(*emp.BrandID)
	}
	return Self(emp.ID)
}
