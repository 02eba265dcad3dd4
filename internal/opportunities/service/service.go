// Package service implements the opportunity upsert engine, direct edits and
// scoped reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hxms_backend/internal/events"
	"hxms_backend/internal/opportunities/domain"
	"hxms_backend/internal/opportunities/repository"
	"hxms_backend/internal/opportunities/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/apperr"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
	"hxms_backend/platform/validator"
)

const (
	msgNotFound  = "opportunity not found"
	msgForbidden = "opportunity is outside your data scope"
)

// ScopeResolver resolves the acting principal.
type ScopeResolver interface {
	Resolve(ctx context.Context, actor scope.Actor) (scope.Principal, error)
}

// Service provides the opportunity business logic.
type Service struct {
	repo    repository.Repository
	owners  *OwnerResolver
	scopes  ScopeResolver
	bus     events.Bus
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// New creates the opportunity service. bus and m may be nil.
func New(repo repository.Repository, employees EmployeeDirectory, scopes ScopeResolver, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		owners:  NewOwnerResolver(employees),
		scopes:  scopes,
		bus:     bus,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// UpsertFromLead derives the opportunity cycle from a saved lead. It creates
// a cycle when none exists or the latest is closed, otherwise folds the visit
// into the latest one. When a new cycle would be needed but no owner
// resolves, the latest cycle is returned unchanged (possibly nil) without error.
func (s *Service) UpsertFromLead(ctx context.Context, v domain.Visit) (*domain.Opportunity, error) {
	key := v.CustomerKey()
	if key == "" || v.StoreID <= 0 {
		s.log.WithContext(ctx).Debug("lead carries no customer identity, no opportunity derived", "leadId", v.LeadID)
		return nil, nil
	}

	owner, err := s.owners.Resolve(ctx, v)
	if err != nil {
		return nil, err
	}

	var (
		result *domain.Opportunity
		action domain.Action
	)
	err = s.repo.WithinCycleLock(ctx, key, v.StoreID, func(store repository.CycleStore) error {
		latest, err := store.FindLatestOpenCycle(ctx, key, v.StoreID)
		if err != nil {
			return err
		}

		action = domain.Decide(latest, v.LeadID, owner != nil)
		switch action {
		case domain.ActionSkip:
			result = latest
			return nil
		case domain.ActionUpdate:
			result, action, err = applyVisit(ctx, store, *latest, v, owner)
			return err
		}

		created, err := store.Create(ctx, domain.NewFromVisit(v, *owner))
		if errors.Is(err, repository.ErrOpenCycleExists) {
			s.metrics.IncFindOrCreateConflict("opportunity")
			latest, err = store.FindLatestOpenCycle(ctx, key, v.StoreID)
			if err != nil {
				return err
			}
			if latest == nil || latest.Status != domain.StatusInProgress {
				return repository.ErrOpenCycleExists
			}
			result, action, err = applyVisit(ctx, store, *latest, v, owner)
			return err
		}
		if err != nil {
			return err
		}
		result = &created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert opportunity: %w", err)
	}

	s.record(ctx, result, v, key, action)
	return result, nil
}

func applyVisit(ctx context.Context, store repository.CycleStore, opp domain.Opportunity, v domain.Visit, owner *domain.Owner) (*domain.Opportunity, domain.Action, error) {
	won := domain.ApplyVisit(&opp, v, owner)
	updated, err := store.Update(ctx, opp)
	if err != nil {
		return nil, "", err
	}
	if won {
		return &updated, domain.ActionWon, nil
	}
	return &updated, domain.ActionUpdate, nil
}

// record appends the trail entry and publishes the change. Both are best effort.
func (s *Service) record(ctx context.Context, opp *domain.Opportunity, v domain.Visit, key string, action domain.Action) {
	log := s.log.WithContext(ctx).With("leadId", v.LeadID, "storeId", v.StoreID, "customerKey", key)

	evt := events.OpportunityChanged{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      v.LeadID,
		StoreID:     v.StoreID,
		CustomerKey: key,
		Action:      string(action),
	}

	if action == domain.ActionSkip {
		log.Warn("no accountable owner at store, new opportunity cycle withheld")
	} else if opp != nil {
		evt.OpportunityID = opp.ID
		evt.Status = string(opp.Status)
		leadID := v.LeadID
		if err := s.repo.AppendActivity(ctx, repository.Activity{
			OpportunityID: opp.ID,
			LeadID:        &leadID,
			Action:        string(action),
			Meta: map[string]interface{}{
				"status":    string(opp.Status),
				"visitDate": v.VisitDate.Format(validator.DateLayout),
			},
		}); err != nil {
			log.Error("failed to append opportunity activity", "opportunityId", opp.ID, "error", err)
		}
		log.Info("opportunity derived from lead", "opportunityId", opp.ID, "action", action, "status", opp.Status)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, evt)
	}
}

// Edit applies a direct correction to an existing opportunity. It never creates.
func (s *Service) Edit(ctx context.Context, actor scope.Actor, req transport.EditRequest) (transport.OpportunityResponse, error) {
	if req.ID <= 0 {
		return transport.OpportunityResponse{}, apperr.Required("id")
	}
	edit, err := toEdit(req)
	if err != nil {
		return transport.OpportunityResponse{}, err
	}

	opp, err := s.loadCovered(ctx, actor, req.ID)
	if err != nil {
		return transport.OpportunityResponse{}, err
	}

	domain.ApplyEdit(&opp, edit, s.now())

	updated, err := s.repo.Update(ctx, opp)
	if errors.Is(err, repository.ErrOpenCycleExists) {
		return transport.OpportunityResponse{}, apperr.Conflict(err.Error())
	}
	if errors.Is(err, repository.ErrNotFound) {
		return transport.OpportunityResponse{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return transport.OpportunityResponse{}, err
	}

	if err := s.repo.AppendActivity(ctx, repository.Activity{
		OpportunityID: updated.ID,
		Action:        string(domain.ActionEdit),
		Meta:          map[string]interface{}{"status": string(updated.Status), "by": actor.UserID},
	}); err != nil {
		s.log.WithContext(ctx).Error("failed to append opportunity activity", "opportunityId", updated.ID, "error", err)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.OpportunityChanged{
			BaseEvent:     events.NewBaseEvent(),
			OpportunityID: updated.ID,
			StoreID:       updated.StoreID,
			CustomerKey:   updated.CustomerKey,
			Action:        string(domain.ActionEdit),
			Status:        string(updated.Status),
		})
	}

	return ToResponse(updated), nil
}

// Get returns one opportunity with its trail, if the actor's scope covers it.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id int64) (transport.DetailResponse, error) {
	opp, err := s.loadCovered(ctx, actor, id)
	if err != nil {
		return transport.DetailResponse{}, err
	}

	trail, err := s.repo.ListActivity(ctx, id)
	if err != nil {
		return transport.DetailResponse{}, err
	}
	activity := make([]transport.ActivityResponse, 0, len(trail))
	for _, a := range trail {
		activity = append(activity, transport.ActivityResponse{
			LeadID:    a.LeadID,
			Action:    a.Action,
			Meta:      a.Meta,
			CreatedAt: a.CreatedAt,
		})
	}

	return transport.DetailResponse{OpportunityResponse: ToResponse(opp), Activity: activity}, nil
}

// List returns one page of opportunities inside the actor's scope.
func (s *Service) List(ctx context.Context, actor scope.Actor, req transport.ListRequest, maxPageSize int) (transport.ListResponse, error) {
	principal, err := s.scopes.Resolve(ctx, actor)
	if err != nil {
		return transport.ListResponse{}, err
	}

	params := repository.ListParams{
		Scope:   principal.Scope,
		Search:  strings.TrimSpace(req.Search),
		StoreID: req.StoreID,
		Page:    scope.NewPage(req.Page, req.PageSize, maxPageSize),
	}
	if req.Status != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return transport.ListResponse{}, apperr.Validation("unknown status").WithField("status")
		}
		params.Status = &status
	}
	if level := strings.TrimSpace(req.Level); level != "" {
		params.Level = &level
	}
	if params.DateFrom, err = parseDate("dateFrom", req.DateFrom); err != nil {
		return transport.ListResponse{}, err
	}
	if params.DateTo, err = parseDate("dateTo", req.DateTo); err != nil {
		return transport.ListResponse{}, err
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ListResponse{}, err
	}

	resp := make([]transport.OpportunityResponse, 0, len(items))
	for _, o := range items {
		resp = append(resp, ToResponse(o))
	}
	return transport.ListResponse{
		Items:      resp,
		Total:      total,
		Page:       params.Page.Page,
		PageSize:   params.Page.PageSize,
		TotalPages: params.Page.TotalPages(total),
	}, nil
}

func (s *Service) loadCovered(ctx context.Context, actor scope.Actor, id int64) (domain.Opportunity, error) {
	principal, err := s.scopes.Resolve(ctx, actor)
	if err != nil {
		return domain.Opportunity{}, err
	}

	opp, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Opportunity{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return domain.Opportunity{}, err
	}

	if !principal.Scope.Covers(recordOf(opp)) {
		return domain.Opportunity{}, apperr.Forbidden(msgForbidden)
	}
	return opp, nil
}

func recordOf(o domain.Opportunity) scope.Record {
	rec := scope.Record{
		StoreID:      &o.StoreID,
		RegionID:     o.RegionID,
		BrandID:      o.BrandID,
		DepartmentID: o.DepartmentID,
	}
	if o.OwnerID != nil {
		rec.Owners = []int64{*o.OwnerID}
	}
	return rec
}

func toEdit(req transport.EditRequest) (domain.Edit, error) {
	edit := domain.Edit{
		Level:            req.Level,
		FailReason:       req.FailReason,
		TestDrive:        req.TestDrive.Ptr(),
		PriceNegotiation: req.PriceNegotiation.Ptr(),
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		Gender:           req.Gender,
		AgeRange:         req.AgeRange,
		Residence:        req.Residence,
		CurrentVehicle:   req.CurrentVehicle,
	}
	if req.Status != nil {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return domain.Edit{}, apperr.Validation("unknown status").WithField("status")
		}
		edit.Status = &status
	}
	if req.CustomerName != nil && strings.TrimSpace(*req.CustomerName) == "" {
		return domain.Edit{}, apperr.Validation("customerName cannot be blank").WithField("customerName")
	}
	return edit, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(validator.DateLayout, raw)
	if err != nil {
		return nil, apperr.Validation("invalid date").WithField(field)
	}
	return &t, nil
}

// ToResponse maps an opportunity to its API shape.
func ToResponse(o domain.Opportunity) transport.OpportunityResponse {
	resp := transport.OpportunityResponse{
		ID:                o.ID,
		CustomerID:        o.CustomerID,
		CustomerName:      o.CustomerName,
		CustomerPhone:     o.CustomerPhone,
		Gender:            o.Profile.Gender,
		AgeRange:          o.Profile.AgeRange,
		Residence:         o.Profile.Residence,
		CurrentVehicle:    o.Profile.CurrentVehicle,
		Status:            string(o.Status),
		StatusLabel:       o.Status.Label(),
		Level:             o.Level,
		FailReason:        o.FailReason,
		OwnerID:           o.OwnerID,
		OwnerName:         o.OwnerName,
		OwnerDepartmentID: o.OwnerDepartmentID,
		StoreID:           o.StoreID,
		RegionID:          o.RegionID,
		BrandID:           o.BrandID,
		DepartmentID:      o.DepartmentID,
		OpenDate:          o.OpenDate.Format(validator.DateLayout),
		LatestVisitDate:   o.LatestVisitDate.Format(validator.DateLayout),
		ChannelID:         o.ChannelID,
		ChannelCategory:   o.Channel.Category,
		ChannelSource:     o.Channel.Source,
		ChannelLevel1:     o.Channel.Level1,
		ChannelLevel2:     o.Channel.Level2,
		FocusModelID:      o.FocusModelID,
		FocusModelName:    o.FocusModelName,
		TestDrive:         o.TestDrive,
		PriceNegotiation:  o.PriceNegotiation,
		OpenLeadID:        o.OpenLeadID,
		LastLeadID:        o.LastLeadID,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.ClosedDate != nil {
		closed := o.ClosedDate.Format(validator.DateLayout)
		resp.ClosedDate = &closed
	}
	return resp
}
