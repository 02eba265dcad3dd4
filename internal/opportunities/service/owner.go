package service

import (
	"context"
	"errors"
	"fmt"

	"hxms_backend/internal/opportunities/domain"
	"hxms_backend/internal/scope"
	"hxms_backend/internal/staff"
)

// EmployeeDirectory is the read-only employee lookup the owner chain needs.
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id int64) (staff.Employee, error)
	FindActiveByRoleAtStore(ctx context.Context, role string, storeID int64, departmentID *int64) (staff.Employee, error)
}

// OwnerResolver finds the accountable employee for a visit: the named
// consultant if active and staffed at the store, else an active sales
// manager of the consultant's department at the store, else an active store
// director. Nil means nobody qualifies.
type OwnerResolver struct {
	employees EmployeeDirectory
}

// NewOwnerResolver creates an OwnerResolver.
func NewOwnerResolver(employees EmployeeDirectory) *OwnerResolver {
	return &OwnerResolver{employees: employees}
}

// Resolve walks the escalation chain for v.
func (r *OwnerResolver) Resolve(ctx context.Context, v domain.Visit) (*domain.Owner, error) {
	departmentID := v.DepartmentID

	if v.ConsultantID != nil {
		emp, err := r.employees.GetByID(ctx, *v.ConsultantID)
		switch {
		case err == nil:
			if emp.Active && emp.WorksAt(v.StoreID) {
				return ownerOf(emp), nil
			}
			if emp.DepartmentID != nil {
				departmentID = emp.DepartmentID
			}
		case errors.Is(err, staff.ErrNotFound):
		default:
			return nil, fmt.Errorf("load consultant: %w", err)
		}
	}

	if departmentID != nil {
		owner, err := r.findByRole(ctx, scope.RoleSalesManager, v.StoreID, departmentID)
		if owner != nil || err != nil {
			return owner, err
		}
	}

	return r.findByRole(ctx, scope.RoleStoreDirector, v.StoreID, nil)
}

func (r *OwnerResolver) findByRole(ctx context.Context, role scope.Role, storeID int64, departmentID *int64) (*domain.Owner, error) {
	emp, err := r.employees.FindActiveByRoleAtStore(ctx, string(role), storeID, departmentID)
	if errors.Is(err, staff.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", role, err)
	}
	return ownerOf(emp), nil
}

func ownerOf(emp staff.Employee) *domain.Owner {
	return &domain.Owner{EmployeeID: emp.ID, Name: emp.Name, DepartmentID: emp.DepartmentID}
}
