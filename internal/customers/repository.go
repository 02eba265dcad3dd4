package customers

import (
	"context"
	"errors"
	"fmt"

	"hxms_backend/internal/scope"
	"hxms_backend/platform/db"

	"github.com/jackc/pgx/v5"
)

const naturalKeyConstraint = "customers_natural_key"

// Columns maps customers onto the scope predicate builder.
var Columns = scope.Columns{
	Store:      "c.store_id",
	Region:     "c.region_id",
	Brand:      "c.brand_id",
	Department: "c.department_id",
	Owners:     []string{"c.created_by"},
}

// Repository is the PostgreSQL customer store.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a customer repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

var _ Store = (*Repository)(nil)

const customerColumns = `c.id, c.store_id, c.region_id, c.brand_id, c.department_id, c.phone, c.name,
	c.gender, c.age_range, c.residence, c.current_vehicle, c.created_by, c.created_at, c.updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.StoreID, &c.RegionID, &c.BrandID, &c.DepartmentID, &c.Phone, &c.Name,
		&c.Profile.Gender, &c.Profile.AgeRange, &c.Profile.Residence, &c.Profile.CurrentVehicle,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// FindByNaturalKey loads the customer with the exact (store, phone, name) triple.
func (r *Repository) FindByNaturalKey(ctx context.Context, storeID int64, phone, name string) (Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers c
		WHERE c.store_id = $1 AND c.phone = $2 AND c.name = $3`, storeID, phone, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("find customer by natural key: %w", err)
	}
	return c, nil
}

// Insert creates a customer. A natural key collision returns ErrConflict.
func (r *Repository) Insert(ctx context.Context, p FindOrCreateParams) (Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `
		INSERT INTO customers AS c (store_id, region_id, brand_id, department_id, phone, name,
			gender, age_range, residence, current_vehicle, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+customerColumns,
		p.StoreID, p.RegionID, p.BrandID, p.DepartmentID, p.Phone, p.Name,
		p.Profile.Gender, p.Profile.AgeRange, p.Profile.Residence, p.Profile.CurrentVehicle, p.CreatedBy,
	))
	if db.IsUniqueViolation(err, naturalKeyConstraint) {
		return Customer{}, ErrConflict
	}
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

// UpdateProfile overwrites the profile and attribution of a customer.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, p FindOrCreateParams) (Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `
		UPDATE customers AS c SET
			gender = $2,
			age_range = $3,
			residence = $4,
			current_vehicle = $5,
			region_id = $6,
			brand_id = $7,
			department_id = COALESCE($8, c.department_id),
			updated_at = now()
		WHERE c.id = $1
		RETURNING `+customerColumns,
		id, p.Profile.Gender, p.Profile.AgeRange, p.Profile.Residence, p.Profile.CurrentVehicle,
		p.RegionID, p.BrandID, p.DepartmentID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// List returns one page of customers, most recently updated first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Customer, int, error) {
	filter := scope.NewFilter(params.Scope, Columns)
	filter.Search(params.Search, "c.name", "c.phone")
	if params.StoreID != nil {
		filter.Equals("c.store_id", *params.StoreID)
	}
	where := filter.Where()
	args := filter.Args()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers c `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	next := filter.NextArg()
	query := fmt.Sprintf(`SELECT %s FROM customers c %s ORDER BY c.updated_at DESC, c.id DESC LIMIT $%d OFFSET $%d`,
		customerColumns, where, next, next+1)
	rows, err := r.db.Query(ctx, query, append(args, params.Page.PageSize, params.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	items := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}
	return items, total, nil
}
