// Package ports defines consumer-driven interfaces for external dependencies.
// These interfaces are defined in the Leads domain based on what it needs,
// rather than what other domains choose to offer.
package ports

import (
	"context"

	"hxms_backend/internal/leads/repository"
	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
)

// Principal resolves the acting employee and data scope.
type Principal interface {
	Resolve(ctx context.Context, actor scope.Actor) (scope.Principal, error)
}

// OrgAttribution is the region and brand above a store.
type OrgAttribution struct {
	RegionID *int64
	BrandID  *int64
}

// OrgResolver derives region and brand for a store. It never fails; missing
// ancestors stay nil.
type OrgResolver interface {
	ResolveAttribution(ctx context.Context, storeID int64) OrgAttribution
}

// Consultant is an employee who received a visit.
type Consultant struct {
	EmployeeID   int64
	Name         string
	DepartmentID *int64
}

// ConsultantDirectory finds the active employee with an exact name at a
// store. It returns nil, nil when nobody matches.
type ConsultantDirectory interface {
	FindConsultant(ctx context.Context, name string, storeID int64) (*Consultant, error)
}

// CustomerInput is what a lead knows about its customer.
type CustomerInput struct {
	StoreID        int64
	Phone          string
	Name           string
	Gender         string
	AgeRange       string
	Residence      string
	CurrentVehicle string
	RegionID       *int64
	BrandID        *int64
	DepartmentID   *int64
	CreatedBy      *int64
}

// CustomerRef is the customer a lead links to, as captured in its snapshot.
type CustomerRef struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Gender         string `json:"gender,omitempty"`
	AgeRange       string `json:"ageRange,omitempty"`
	Residence      string `json:"residence,omitempty"`
	CurrentVehicle string `json:"currentVehicle,omitempty"`
}

// CustomerLinker finds or creates the customer for a lead. A blank phone
// links nothing and returns nil, nil.
type CustomerLinker interface {
	LinkCustomer(ctx context.Context, in CustomerInput) (*CustomerRef, error)
}

// ChannelInput is the four-part channel attribution of a lead.
type ChannelInput struct {
	Category string
	Source   string
	Level1   string
	Level2   string
}

// ChannelRef is the channel dictionary entry a lead links to.
type ChannelRef struct {
	ID       int64  `json:"id"`
	Key      string `json:"key"`
	Category string `json:"category"`
	Source   string `json:"source"`
	Level1   string `json:"level1,omitempty"`
	Level2   string `json:"level2,omitempty"`
}

// ChannelLinker finds or creates the channel entry. An empty attribution
// links nothing and returns nil, nil.
type ChannelLinker interface {
	LinkChannel(ctx context.Context, in ChannelInput) (*ChannelRef, error)
}

// ProductRef is a product reference; ID is nil for free-text names.
type ProductRef struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
}

// ProductResolver resolves a product by id or exact name. Unknown names come
// back as free text; unknown ids are a validation error.
type ProductResolver interface {
	ResolveProduct(ctx context.Context, id *int64, name string) (*ProductRef, error)
}

// OpportunityDeriver feeds a saved lead to the opportunity engine.
type OpportunityDeriver interface {
	DeriveFromLead(ctx context.Context, lead repository.Lead) error
}

// LeadSaveEnqueuer hands a save to the background worker and returns the task id.
type LeadSaveEnqueuer interface {
	EnqueueLeadSave(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (string, error)
}
