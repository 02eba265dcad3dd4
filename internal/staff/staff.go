// Package staff is the read-only employee directory used for consultant
// resolution, owner escalation and scope computation.
package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hxms_backend/platform/db"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when no employee matches.
var ErrNotFound = errors.New("employee not found")

// Employee is one row of the employee directory.
type Employee struct {
	ID           int64
	UserID       *int64
	Name         string
	Phone        string
	Role         string
	StoreID      *int64
	DepartmentID *int64
	RegionID     *int64
	BrandID      *int64
	Active       bool
	// LinkedStores holds employee_stores entries; filled by the loaders below.
	LinkedStores []int64
}

// Stores returns the primary store followed by every linked store, without duplicates.
func (e Employee) Stores() []int64 {
	out := make([]int64, 0, len(e.LinkedStores)+1)
	seen := map[int64]bool{}
	if e.StoreID != nil {
		out = append(out, *e.StoreID)
		seen[*e.StoreID] = true
	}
	for _, id := range e.LinkedStores {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// WorksAt reports whether the employee is staffed at storeID, either as
// primary store or through a store link.
func (e Employee) WorksAt(storeID int64) bool {
	for _, id := range e.Stores() {
		if id == storeID {
			return true
		}
	}
	return false
}

// Repository reads employees and employee_stores.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a staff repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const employeeColumns = `e.id, e.user_id, e.name, e.phone, e.role, e.store_id, e.department_id, e.region_id, e.brand_id, e.active`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Phone, &e.Role, &e.StoreID, &e.DepartmentID, &e.RegionID, &e.BrandID, &e.Active)
	return e, err
}

// GetByUserID loads the employee linked to an authenticated user.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees e WHERE e.user_id = $1`, userID)
	return r.withLinks(ctx, row, "get employee by user")
}

// GetByID loads an employee by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees e WHERE e.id = $1`, id)
	return r.withLinks(ctx, row, "get employee")
}

// FindActiveByNameAtStore finds an active employee with exactly this name
// who is staffed at storeID. The lowest id wins when names collide.
func (r *Repository) FindActiveByNameAtStore(ctx context.Context, name string, storeID int64) (Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Employee{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `
		SELECT `+employeeColumns+`
		FROM employees e
		WHERE e.active AND e.name = $1
		  AND (e.store_id = $2 OR EXISTS (
		      SELECT 1 FROM employee_stores es WHERE es.employee_id = e.id AND es.store_id = $2))
		ORDER BY e.id
		LIMIT 1`, name, storeID)
	return r.withLinks(ctx, row, "find employee by name")
}

// FindActiveByRoleAtStore finds an active employee holding role at storeID.
// When departmentID is set the employee must belong to that department.
func (r *Repository) FindActiveByRoleAtStore(ctx context.Context, role string, storeID int64, departmentID *int64) (Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.active AND e.role = $1
		  AND (e.store_id = $2 OR EXISTS (
		      SELECT 1 FROM employee_stores es WHERE es.employee_id = e.id AND es.store_id = $2))`
	args := []interface{}{role, storeID}
	if departmentID != nil {
		query += ` AND e.department_id = $3`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY e.id LIMIT 1`

	return r.withLinks(ctx, r.db.QueryRow(ctx, query, args...), "find employee by role")
}

// LinkedStores lists the employee_stores entries of an employee.
func (r *Repository) LinkedStores(ctx context.Context, employeeID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT store_id FROM employee_stores WHERE employee_id = $1 ORDER BY store_id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list linked stores: %w", err)
	}
	defer rows.Close()

	stores := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan linked store: %w", err)
		}
		stores = append(stores, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked stores: %w", err)
	}
	return stores, nil
}

func (r *Repository) withLinks(ctx context.Context, row pgx.Row, op string) (Employee, error) {
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, fmt.Errorf("%s: %w", op, err)
	}
	links, err := r.LinkedStores(ctx, e.ID)
	if err != nil {
		return Employee{}, err
	}
	e.LinkedStores = links
	return e, nil
}
