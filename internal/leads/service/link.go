package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/leads/repository"
	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
)

// linkPlan says which derived parts of a lead must be recomputed.
type linkPlan struct {
	org        bool
	consultant bool
	customer   bool
	channel    bool
	focus      bool
	deal       bool
}

type productSnapshot struct {
	Focus *ports.ProductRef `json:"focus,omitempty"`
	Deal  *ports.ProductRef `json:"deal,omitempty"`
}

// link resolves org attribution, the consultant, the channel and product
// references concurrently, then the customer, whose attribution depends on
// the first round.
func (s *Service) link(ctx context.Context, principal scope.Principal, lead *repository.Lead, req transport.SaveLeadRequest, plan linkPlan) error {
	var (
		attribution ports.OrgAttribution
		consultant  *ports.Consultant
		channel     *ports.ChannelRef
		focus, deal *ports.ProductRef
	)

	g, gctx := errgroup.WithContext(ctx)
	if plan.org {
		g.Go(func() error {
			attribution = s.deps.Org.ResolveAttribution(gctx, lead.StoreID)
			return nil
		})
	}
	if plan.consultant {
		name := lead.SalesConsultant
		g.Go(func() error {
			var err error
			consultant, err = s.resolveConsultant(gctx, principal, name, lead.StoreID)
			return err
		})
	}
	if plan.channel {
		in := ports.ChannelInput{
			Category: lead.ChannelCategory,
			Source:   lead.ChannelSource,
			Level1:   lead.ChannelLevel1,
			Level2:   lead.ChannelLevel2,
		}
		g.Go(func() error {
			var err error
			channel, err = s.deps.Channels.LinkChannel(gctx, in)
			if err != nil {
				return fmt.Errorf("link channel: %w", err)
			}
			return nil
		})
	}
	if plan.focus {
		g.Go(func() error {
			var err error
			focus, err = s.deps.Products.ResolveProduct(gctx, req.FocusModelID, deref(req.FocusModelName))
			return err
		})
	}
	if plan.deal {
		g.Go(func() error {
			var err error
			deal, err = s.deps.Products.ResolveProduct(gctx, req.DealModelID, deref(req.DealModelName))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if plan.org {
		lead.RegionID = attribution.RegionID
		lead.BrandID = attribution.BrandID
	}
	if plan.consultant {
		applyConsultant(lead, consultant)
	}
	if plan.channel {
		if err := applyChannel(lead, channel); err != nil {
			return err
		}
	}
	if plan.focus || plan.deal {
		if err := applyProducts(lead, plan, focus, deal); err != nil {
			return err
		}
	}

	if plan.customer {
		customer, err := s.deps.Customers.LinkCustomer(ctx, ports.CustomerInput{
			StoreID:        lead.StoreID,
			Phone:          lead.CustomerPhone,
			Name:           lead.CustomerName,
			Gender:         lead.CustomerGender,
			AgeRange:       lead.CustomerAgeRange,
			Residence:      lead.CustomerResidence,
			CurrentVehicle: lead.CurrentVehicle,
			RegionID:       lead.RegionID,
			BrandID:        lead.BrandID,
			DepartmentID:   lead.DepartmentID,
			CreatedBy:      lead.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("link customer: %w", err)
		}
		if err := applyCustomer(lead, customer); err != nil {
			return err
		}
	}
	return nil
}

// resolveConsultant matches a named consultant at the store. With no name,
// the actor becomes the consultant when staffed at the store.
func (s *Service) resolveConsultant(ctx context.Context, principal scope.Principal, name string, storeID int64) (*ports.Consultant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		emp := principal.Employee
		if emp != nil && emp.Active && emp.WorksAt(storeID) {
			return &ports.Consultant{EmployeeID: emp.ID, Name: emp.Name, DepartmentID: emp.DepartmentID}, nil
		}
		return nil, nil
	}

	consultant, err := s.deps.Consultants.FindConsultant(ctx, name, storeID)
	if err != nil {
		return nil, fmt.Errorf("resolve consultant: %w", err)
	}
	return consultant, nil
}

// applyConsultant records the resolved consultant. An unresolved name stays
// as free text without an id.
func applyConsultant(lead *repository.Lead, c *ports.Consultant) {
	if c == nil {
		lead.SalesConsultantID = nil
		return
	}
	id := c.EmployeeID
	lead.SalesConsultantID = &id
	lead.SalesConsultant = c.Name
	if c.DepartmentID != nil {
		lead.DepartmentID = c.DepartmentID
	}
}

func applyChannel(lead *repository.Lead, c *ports.ChannelRef) error {
	if c == nil {
		lead.ChannelID = nil
		lead.ChannelSnapshot = nil
		return nil
	}
	snapshot, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("channel snapshot: %w", err)
	}
	id := c.ID
	lead.ChannelID = &id
	lead.ChannelSnapshot = snapshot
	return nil
}

func applyCustomer(lead *repository.Lead, c *ports.CustomerRef) error {
	if c == nil {
		lead.CustomerID = nil
		lead.CustomerSnapshot = nil
		return nil
	}
	snapshot, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("customer snapshot: %w", err)
	}
	id := c.ID
	lead.CustomerID = &id
	lead.CustomerSnapshot = snapshot
	return nil
}

// applyProducts sets the recomputed references and rebuilds the product
// snapshot from both, keeping the side that was not recomputed.
func applyProducts(lead *repository.Lead, plan linkPlan, focus, deal *ports.ProductRef) error {
	if plan.focus {
		lead.FocusModelID, lead.FocusModelName = refParts(focus)
	}
	if plan.deal {
		lead.DealModelID, lead.DealModelName = refParts(deal)
	}

	snap := productSnapshot{
		Focus: refOf(lead.FocusModelID, lead.FocusModelName),
		Deal:  refOf(lead.DealModelID, lead.DealModelName),
	}
	if snap.Focus == nil && snap.Deal == nil {
		lead.ProductSnapshot = nil
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("product snapshot: %w", err)
	}
	lead.ProductSnapshot = data
	return nil
}

func refParts(ref *ports.ProductRef) (*int64, string) {
	if ref == nil {
		return nil, ""
	}
	return ref.ID, ref.Name
}

func refOf(id *int64, name string) *ports.ProductRef {
	if id == nil && name == "" {
		return nil
	}
	return &ports.ProductRef{ID: id, Name: name}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
