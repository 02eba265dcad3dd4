package repository

import (
	"context"
	"errors"
	"time"

	"hxms_backend/internal/opportunities/domain"
	"hxms_backend/internal/scope"
)

var (
	// ErrNotFound is returned when an opportunity does not exist.
	ErrNotFound = errors.New("opportunity not found")
	// ErrOpenCycleExists is returned when a write would leave two open
	// cycles for the same customer and store.
	ErrOpenCycleExists = errors.New("an open opportunity already exists for this customer and store")
)

// Columns maps opportunities onto the scope predicate builder.
var Columns = scope.Columns{
	Store:      "o.store_id",
	Region:     "o.region_id",
	Brand:      "o.brand_id",
	Department: "o.department_id",
	Owners:     []string{"o.owner_id"},
}

// CycleStore is the view of the opportunity table available while the
// cycle lock for one customer and store is held.
type CycleStore interface {
	// FindLatestOpenCycle returns the most recently created cycle for the
	// customer at the store, whatever its status, or nil when none exists.
	FindLatestOpenCycle(ctx context.Context, customerKey string, storeID int64) (*domain.Opportunity, error)
	// Create inserts a cycle; ErrOpenCycleExists when an open one already exists.
	Create(ctx context.Context, opp domain.Opportunity) (domain.Opportunity, error)
	Update(ctx context.Context, opp domain.Opportunity) (domain.Opportunity, error)
}

// Activity is one entry of the opportunity trail.
type Activity struct {
	OpportunityID int64
	LeadID        *int64
	Action        string
	Meta          map[string]interface{}
	CreatedAt     time.Time
}

// ListParams filters the opportunity list.
type ListParams struct {
	Scope    scope.Scope
	Search   string
	Status   *domain.Status
	Level    *string
	StoreID  *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Page     scope.Page
}

// Repository is the opportunity persistence used by the service.
type Repository interface {
	// WithinCycleLock runs fn in a transaction that serializes every writer
	// of the same customer key and store.
	WithinCycleLock(ctx context.Context, customerKey string, storeID int64, fn func(CycleStore) error) error
	GetByID(ctx context.Context, id int64) (domain.Opportunity, error)
	Update(ctx context.Context, opp domain.Opportunity) (domain.Opportunity, error)
	List(ctx context.Context, params ListParams) ([]domain.Opportunity, int, error)
	AppendActivity(ctx context.Context, a Activity) error
	ListActivity(ctx context.Context, opportunityID int64) ([]Activity, error)
}
