package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hxms_backend/internal/scope"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Columns maps leads onto the scope predicate builder. Self-scoped actors
// see the leads they created and the leads they were the consultant on.
var Columns = scope.Columns{
	Store:      "l.store_id",
	Region:     "l.region_id",
	Brand:      "l.brand_id",
	Department: "l.department_id",
	Owners:     []string{"l.created_by", "l.sales_consultant_id"},
}

// Lead is one store visit.
type Lead struct {
	ID              int64
	VisitDate       time.Time
	ArriveTime      string
	LeaveTime       string
	ReceptionStatus string

	SalesConsultant   string
	SalesConsultantID *int64

	CustomerID        *int64
	CustomerName      string
	CustomerPhone     string
	CustomerGender    string
	CustomerAgeRange  string
	CustomerResidence string
	CurrentVehicle    string

	OpportunityLevel string
	TestDrive        bool
	PriceNegotiation bool
	DealDone         bool

	FocusModelID   *int64
	FocusModelName string
	DealModelID    *int64
	DealModelName  string

	ChannelID       *int64
	ChannelCategory string
	ChannelSource   string
	ChannelLevel1   string
	ChannelLevel2   string

	StoreID      int64
	RegionID     *int64
	BrandID      *int64
	DepartmentID *int64

	Remark string

	CustomerSnapshot json.RawMessage
	ChannelSnapshot  json.RawMessage
	ProductSnapshot  json.RawMessage

	CreatedBy *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record returns the attribution used for write checks.
func (l Lead) Record() scope.Record {
	storeID := l.StoreID
	rec := scope.Record{
		StoreID:      &storeID,
		RegionID:     l.RegionID,
		BrandID:      l.BrandID,
		DepartmentID: l.DepartmentID,
	}
	if l.CreatedBy != nil {
		rec.Owners = append(rec.Owners, *l.CreatedBy)
	}
	if l.SalesConsultantID != nil {
		rec.Owners = append(rec.Owners, *l.SalesConsultantID)
	}
	return rec
}

// ListParams filters the lead list.
type ListParams struct {
	Scope    scope.Scope
	Search   string
	Level    *string
	StoreID  *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Page     scope.Page
}

// LeadReader reads leads.
type LeadReader interface {
	GetByID(ctx context.Context, id int64) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter persists leads. Update writes only the columns that differ
// between before and after and never touches created_by or created_at.
type LeadWriter interface {
	Create(ctx context.Context, lead Lead) (Lead, error)
	Update(ctx context.Context, before, after Lead) (Lead, error)
}

// LeadRepository is the full lead persistence.
type LeadRepository interface {
	LeadReader
	LeadWriter
}
