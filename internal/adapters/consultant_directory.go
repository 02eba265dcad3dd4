package adapters

import (
	"context"
	"errors"

	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/staff"
)

// EmployeeNameFinder is the staff lookup consultant resolution needs.
type EmployeeNameFinder interface {
	FindActiveByNameAtStore(ctx context.Context, name string, storeID int64) (staff.Employee, error)
}

// ConsultantDirectoryAdapter resolves consultant names against the employee directory.
type ConsultantDirectoryAdapter struct {
	employees EmployeeNameFinder
}

// NewConsultantDirectoryAdapter creates a ConsultantDirectoryAdapter.
func NewConsultantDirectoryAdapter(employees EmployeeNameFinder) *ConsultantDirectoryAdapter {
	return &ConsultantDirectoryAdapter{employees: employees}
}

// FindConsultant implements ports.ConsultantDirectory.
func (a *ConsultantDirectoryAdapter) FindConsultant(ctx context.Context, name string, storeID int64) (*ports.Consultant, error) {
	emp, err := a.employees.FindActiveByNameAtStore(ctx, name, storeID)
	if errors.Is(err, staff.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ports.Consultant{EmployeeID: emp.ID, Name: emp.Name, DepartmentID: emp.DepartmentID}, nil
}

var _ ports.ConsultantDirectory = (*ConsultantDirectoryAdapter)(nil)
