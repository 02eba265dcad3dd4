package adapters

import (
	"context"

	"hxms_backend/internal/customers"
	"hxms_backend/internal/leads/ports"
)

// CustomerFinder is the customer normalizer.
type CustomerFinder interface {
	FindOrCreate(ctx context.Context, params customers.FindOrCreateParams) (*customers.Customer, error)
}

// CustomerLinkerAdapter links leads to customers by natural key.
type CustomerLinkerAdapter struct {
	customers CustomerFinder
}

// NewCustomerLinkerAdapter creates a CustomerLinkerAdapter.
func NewCustomerLinkerAdapter(customers CustomerFinder) *CustomerLinkerAdapter {
	return &CustomerLinkerAdapter{customers: customers}
}

// LinkCustomer implements ports.CustomerLinker.
func (a *CustomerLinkerAdapter) LinkCustomer(ctx context.Context, in ports.CustomerInput) (*ports.CustomerRef, error) {
	c, err := a.customers.FindOrCreate(ctx, customers.FindOrCreateParams{
		StoreID: in.StoreID,
		Phone:   in.Phone,
		Name:    in.Name,
		Profile: customers.Profile{
			Gender:         in.Gender,
			AgeRange:       in.AgeRange,
			Residence:      in.Residence,
			CurrentVehicle: in.CurrentVehicle,
		},
		RegionID:     in.RegionID,
		BrandID:      in.BrandID,
		DepartmentID: in.DepartmentID,
		CreatedBy:    in.CreatedBy,
	})
	if err != nil || c == nil {
		return nil, err
	}
	return &ports.CustomerRef{
		ID:             c.ID,
		Name:           c.Name,
		Phone:          c.Phone,
		Gender:         c.Profile.Gender,
		AgeRange:       c.Profile.AgeRange,
		Residence:      c.Profile.Residence,
		CurrentVehicle: c.Profile.CurrentVehicle,
	}, nil
}

var _ ports.CustomerLinker = (*CustomerLinkerAdapter)(nil)
