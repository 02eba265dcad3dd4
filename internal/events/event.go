// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"hxms_backend/platform/events"
	"hxms_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus shared by all modules.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadSaved is published after a lead is created or edited.
type LeadSaved struct {
	BaseEvent
	LeadID     int64  `json:"leadId"`
	StoreID    int64  `json:"storeId"`
	CustomerID *int64 `json:"customerId,omitempty"`
	Created    bool   `json:"created"`
	SavedBy    int64  `json:"savedBy"`
}

func (e LeadSaved) EventName() string { return "leads.lead.saved" }

// =============================================================================
// Opportunity Domain Events
// =============================================================================

// OpportunityChanged is published after the engine or a direct edit touches
// an opportunity, and when a visit is skipped for lack of an owner.
type OpportunityChanged struct {
	BaseEvent
	OpportunityID int64  `json:"opportunityId,omitempty"`
	LeadID        int64  `json:"leadId,omitempty"`
	StoreID       int64  `json:"storeId"`
	CustomerKey   string `json:"customerKey"`
	Action        string `json:"action"`
	Status        string `json:"status,omitempty"`
}

func (e OpportunityChanged) EventName() string { return "opportunities.opportunity.changed" }
