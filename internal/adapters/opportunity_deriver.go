package adapters

import (
	"context"

	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/leads/repository"
	"hxms_backend/internal/opportunities/domain"
)

// OpportunityEngine is the opportunity upsert entry point.
type OpportunityEngine interface {
	UpsertFromLead(ctx context.Context, v domain.Visit) (*domain.Opportunity, error)
}

// OpportunityDeriverAdapter feeds saved leads to the opportunity engine.
type OpportunityDeriverAdapter struct {
	engine OpportunityEngine
}

// NewOpportunityDeriverAdapter creates an OpportunityDeriverAdapter.
func NewOpportunityDeriverAdapter(engine OpportunityEngine) *OpportunityDeriverAdapter {
	return &OpportunityDeriverAdapter{engine: engine}
}

// DeriveFromLead implements ports.OpportunityDeriver.
func (a *OpportunityDeriverAdapter) DeriveFromLead(ctx context.Context, lead repository.Lead) error {
	_, err := a.engine.UpsertFromLead(ctx, VisitFromLead(lead))
	return err
}

// VisitFromLead maps a saved lead to the engine's visit.
func VisitFromLead(lead repository.Lead) domain.Visit {
	return domain.Visit{
		LeadID:        lead.ID,
		CustomerID:    lead.CustomerID,
		CustomerName:  lead.CustomerName,
		CustomerPhone: lead.CustomerPhone,
		Profile: domain.Profile{
			Gender:         lead.CustomerGender,
			AgeRange:       lead.CustomerAgeRange,
			Residence:      lead.CustomerResidence,
			CurrentVehicle: lead.CurrentVehicle,
		},
		VisitDate:        lead.VisitDate,
		Level:            lead.OpportunityLevel,
		TestDrive:        lead.TestDrive,
		PriceNegotiation: lead.PriceNegotiation,
		DealDone:         lead.DealDone,
		ConsultantID:     lead.SalesConsultantID,
		StoreID:          lead.StoreID,
		RegionID:         lead.RegionID,
		BrandID:          lead.BrandID,
		DepartmentID:     lead.DepartmentID,
		ChannelID:        lead.ChannelID,
		Channel: domain.Channel{
			Category: lead.ChannelCategory,
			Source:   lead.ChannelSource,
			Level1:   lead.ChannelLevel1,
			Level2:   lead.ChannelLevel2,
		},
		FocusModelID:   lead.FocusModelID,
		FocusModelName: lead.FocusModelName,
	}
}

var _ ports.OpportunityDeriver = (*OpportunityDeriverAdapter)(nil)
