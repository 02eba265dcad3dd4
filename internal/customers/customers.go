// Package customers normalizes lead submissions into customer rows keyed by
// (store, phone, name) and serves the scoped customer list.
package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hxms_backend/internal/scope"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
)

var (
	// ErrNotFound is returned when no customer matches.
	ErrNotFound = errors.New("customer not found")
	// ErrConflict is returned when an insert hits the natural key.
	ErrConflict = errors.New("customer natural key conflict")
)

// Profile holds the fields overwritten on every visit.
type Profile struct {
	Gender         string `json:"gender"`
	AgeRange       string `json:"ageRange"`
	Residence      string `json:"residence"`
	CurrentVehicle string `json:"currentVehicle"`
}

// Customer is a customer row.
type Customer struct {
	ID           int64     `json:"id"`
	StoreID      int64     `json:"storeId"`
	RegionID     *int64    `json:"regionId,omitempty"`
	BrandID      *int64    `json:"brandId,omitempty"`
	DepartmentID *int64    `json:"departmentId,omitempty"`
	Phone        string    `json:"phone"`
	Name         string    `json:"name"`
	Profile      Profile   `json:"profile"`
	CreatedBy    *int64    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FindOrCreateParams identifies a customer and carries the latest profile.
type FindOrCreateParams struct {
	StoreID      int64
	Phone        string
	Name         string
	Profile      Profile
	RegionID     *int64
	BrandID      *int64
	DepartmentID *int64
	CreatedBy    *int64
}

// ListParams filters the customer list.
type ListParams struct {
	Scope   scope.Scope
	Search  string
	StoreID *int64
	Page    scope.Page
}

// ListResult is one page of customers.
type ListResult struct {
	Items      []Customer `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}

// Store is the persistence the service needs.
type Store interface {
	FindByNaturalKey(ctx context.Context, storeID int64, phone, name string) (Customer, error)
	Insert(ctx context.Context, params FindOrCreateParams) (Customer, error)
	UpdateProfile(ctx context.Context, id int64, params FindOrCreateParams) (Customer, error)
	List(ctx context.Context, params ListParams) ([]Customer, int, error)
}

// Service implements the customer normalizer.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewService creates a customer Service.
func NewService(store Store, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, metrics: m, log: log}
}

// FindOrCreate returns the customer for the natural key, overwriting its
// profile, or creates it. A blank phone links no customer and returns nil.
// A concurrent insert of the same key is recovered by re-reading.
func (s *Service) FindOrCreate(ctx context.Context, params FindOrCreateParams) (*Customer, error) {
	params.Phone = strings.TrimSpace(params.Phone)
	params.Name = strings.TrimSpace(params.Name)
	if params.Phone == "" || params.StoreID <= 0 {
		return nil, nil
	}

	existing, err := s.store.FindByNaturalKey(ctx, params.StoreID, params.Phone, params.Name)
	switch {
	case err == nil:
		return s.update(ctx, existing.ID, params)
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("find customer: %w", err)
	}

	created, err := s.store.Insert(ctx, params)
	if err == nil {
		return &created, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.metrics.IncFindOrCreateConflict("customer")
	s.log.WithContext(ctx).Info("customer insert raced, re-reading", "storeId", params.StoreID)

	existing, err = s.store.FindByNaturalKey(ctx, params.StoreID, params.Phone, params.Name)
	if err != nil {
		return nil, fmt.Errorf("re-read customer after conflict: %w", err)
	}
	return s.update(ctx, existing.ID, params)
}

func (s *Service) update(ctx context.Context, id int64, params FindOrCreateParams) (*Customer, error) {
	updated, err := s.store.UpdateProfile(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("update customer profile: %w", err)
	}
	return &updated, nil
}

// List returns one page of customers inside the given scope.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page.Page,
		PageSize:   params.Page.PageSize,
		TotalPages: params.Page.TotalPages(total),
	}, nil
}
