// Package service implements lead persistence: validation, attribution,
// consultant resolution, dictionary linking, snapshots and the hand-off to
// the opportunity engine.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"hxms_backend/internal/events"
	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/leads/repository"
	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/apperr"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
	"hxms_backend/platform/phone"
	"hxms_backend/platform/sanitize"
	"hxms_backend/platform/validator"
)

const (
	msgNotFound      = "lead not found"
	msgForbidden     = "lead is outside your data scope"
	msgStoreRequired = "storeId is required and could not be derived from your account"
)

// Dependencies are the collaborators of the lead service. Opportunities,
// Bus and Metrics may be nil.
type Dependencies struct {
	Principals    ports.Principal
	Org           ports.OrgResolver
	Consultants   ports.ConsultantDirectory
	Customers     ports.CustomerLinker
	Channels      ports.ChannelLinker
	Products      ports.ProductResolver
	Opportunities ports.OpportunityDeriver
	Phones        *phone.Normalizer
	Bus           events.Bus
	Metrics       *metrics.Metrics
}

// Service provides lead business logic.
type Service struct {
	repo repository.LeadRepository
	deps Dependencies
	log  *logger.Logger
}

// New creates the lead service.
func New(repo repository.LeadRepository, deps Dependencies, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Phones == nil {
		deps.Phones = phone.NewNormalizer(phone.DefaultRegion)
	}
	return &Service{repo: repo, deps: deps, log: log}
}

// SetOpportunityDeriver wires the opportunity engine after construction.
func (s *Service) SetOpportunityDeriver(d ports.OpportunityDeriver) {
	s.deps.Opportunities = d
}

// Save creates a lead, or edits it in place when the request carries an id.
// Opportunity derivation afterwards is best effort and never fails the save.
func (s *Service) Save(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (transport.LeadResponse, error) {
	start := time.Now()
	mode := "create"
	if req.IsEdit() {
		mode = "edit"
	}

	lead, err := s.save(ctx, actor, req)
	if err != nil {
		s.deps.Metrics.ObserveLeadSave(mode, outcomeOf(err), time.Since(start))
		return transport.LeadResponse{}, err
	}
	s.deps.Metrics.ObserveLeadSave(mode, "ok", time.Since(start))
	return ToResponse(lead), nil
}

func (s *Service) save(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (repository.Lead, error) {
	req = s.normalize(req)

	principal, err := s.deps.Principals.Resolve(ctx, actor)
	if err != nil {
		return repository.Lead{}, err
	}

	if req.IsEdit() {
		return s.edit(ctx, principal, req)
	}
	return s.create(ctx, principal, req)
}

func (s *Service) create(ctx context.Context, principal scope.Principal, req transport.SaveLeadRequest) (repository.Lead, error) {
	if err := ValidateCreate(req); err != nil {
		return repository.Lead{}, err
	}

	storeID, ok := resolveStore(req.StoreID, principal)
	if !ok {
		return repository.Lead{}, apperr.Validation(msgStoreRequired).WithField("storeId")
	}

	lead := repository.Lead{StoreID: storeID}
	if id := principal.EmployeeID(); id != 0 {
		lead.CreatedBy = &id
	}
	if err := applyRequest(&lead, req); err != nil {
		return repository.Lead{}, err
	}

	plan := linkPlan{org: true, consultant: true, customer: true, channel: true, focus: true, deal: true}
	if err := s.link(ctx, principal, &lead, req, plan); err != nil {
		return repository.Lead{}, err
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return repository.Lead{}, err
	}
	s.afterSave(ctx, principal, created, true)
	return created, nil
}

func (s *Service) edit(ctx context.Context, principal scope.Principal, req transport.SaveLeadRequest) (repository.Lead, error) {
	existing, err := s.load(ctx, principal, *req.ID)
	if err != nil {
		return repository.Lead{}, err
	}

	if req.CustomerName != nil && *req.CustomerName == "" {
		return repository.Lead{}, apperr.Validation("customerName cannot be cleared").WithField("customerName")
	}
	if req.CustomerPhone != nil && *req.CustomerPhone == "" {
		return repository.Lead{}, apperr.Validation("customerPhone cannot be cleared").WithField("customerPhone")
	}

	lead := existing
	if err := applyRequest(&lead, req); err != nil {
		return repository.Lead{}, err
	}

	storeChanged := lead.StoreID != existing.StoreID
	plan := linkPlan{
		org:        storeChanged,
		consultant: storeChanged || req.SalesConsultant != nil,
		customer: storeChanged || req.CustomerName != nil || req.CustomerPhone != nil || req.CustomerGender != nil ||
			req.CustomerAgeRange != nil || req.CustomerResidence != nil || req.CurrentVehicle != nil,
		channel: req.ChannelCategory != nil || req.ChannelSource != nil || req.ChannelLevel1 != nil || req.ChannelLevel2 != nil,
		focus:   req.FocusModelID != nil || req.FocusModelName != nil,
		deal:    req.DealModelID != nil || req.DealModelName != nil,
	}
	if err := s.link(ctx, principal, &lead, req, plan); err != nil {
		return repository.Lead{}, err
	}

	updated, err := s.repo.Update(ctx, existing, lead)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return repository.Lead{}, err
	}
	s.afterSave(ctx, principal, updated, false)
	return updated, nil
}

func (s *Service) afterSave(ctx context.Context, principal scope.Principal, lead repository.Lead, created bool) {
	log := s.log.WithContext(ctx).With("leadId", lead.ID, "storeId", lead.StoreID)

	if s.deps.Opportunities != nil {
		if err := s.deps.Opportunities.DeriveFromLead(ctx, lead); err != nil {
			s.deps.Metrics.IncOpportunityFailure()
			log.Error("opportunity derivation failed, lead save kept", "error", err)
		}
	}

	if s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, events.LeadSaved{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			StoreID:    lead.StoreID,
			CustomerID: lead.CustomerID,
			Created:    created,
			SavedBy:    principal.EmployeeID(),
		})
	}

	log.Info("lead saved", "created", created)
}

// Get returns one lead if the actor's scope covers it.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id int64) (transport.LeadResponse, error) {
	principal, err := s.deps.Principals.Resolve(ctx, actor)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	lead, err := s.load(ctx, principal, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToResponse(lead), nil
}

func (s *Service) load(ctx context.Context, principal scope.Principal, id int64) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return repository.Lead{}, err
	}
	if !principal.Scope.Covers(lead.Record()) {
		return repository.Lead{}, apperr.Forbidden(msgForbidden)
	}
	return lead, nil
}

// List returns one page of leads inside the actor's scope.
func (s *Service) List(ctx context.Context, actor scope.Actor, req transport.ListLeadsRequest, maxPageSize int) (transport.LeadListResponse, error) {
	principal, err := s.deps.Principals.Resolve(ctx, actor)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	params := repository.ListParams{
		Scope:   principal.Scope,
		Search:  strings.TrimSpace(req.Search),
		StoreID: req.StoreID,
		Page:    scope.NewPage(req.Page, req.PageSize, maxPageSize),
	}
	if level := strings.TrimSpace(req.Level); level != "" {
		params.Level = &level
	}
	if params.DateFrom, err = parseDate("dateFrom", req.DateFrom); err != nil {
		return transport.LeadListResponse{}, err
	}
	if params.DateTo, err = parseDate("dateTo", req.DateTo); err != nil {
		return transport.LeadListResponse{}, err
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	resp := make([]transport.LeadResponse, 0, len(items))
	for _, lead := range items {
		resp = append(resp, ToResponse(lead))
	}
	return transport.LeadListResponse{
		Items:      resp,
		Total:      total,
		Page:       params.Page.Page,
		PageSize:   params.Page.PageSize,
		TotalPages: params.Page.TotalPages(total),
	}, nil
}

// ValidateCreate checks the fields a new lead cannot do without.
func ValidateCreate(req transport.SaveLeadRequest) error {
	if isBlank(req.CustomerName) {
		return apperr.Required("customerName")
	}
	if isBlank(req.CustomerPhone) {
		return apperr.Required("customerPhone")
	}
	if isBlank(req.VisitDate) {
		return apperr.Required("visitDate")
	}
	if _, err := time.Parse(validator.DateLayout, strings.TrimSpace(*req.VisitDate)); err != nil {
		return apperr.Validation("invalid date").WithField("visitDate")
	}
	return nil
}

// resolveStore picks the explicit store, else the scope's only store, else
// the actor's primary store.
func resolveStore(explicit *int64, principal scope.Principal) (int64, bool) {
	if explicit != nil && *explicit > 0 {
		return *explicit, true
	}
	if id, ok := principal.Scope.SingleStore(); ok {
		return id, true
	}
	if principal.Employee != nil && principal.Employee.StoreID != nil {
		return *principal.Employee.StoreID, true
	}
	return 0, false
}

func (s *Service) normalize(req transport.SaveLeadRequest) transport.SaveLeadRequest {
	for _, field := range []**string{
		&req.ArriveTime, &req.LeaveTime, &req.ReceptionStatus, &req.SalesConsultant,
		&req.CustomerName, &req.CustomerGender, &req.CustomerAgeRange, &req.CustomerResidence,
		&req.CurrentVehicle, &req.OpportunityLevel, &req.FocusModelName, &req.DealModelName,
		&req.ChannelCategory, &req.ChannelSource, &req.ChannelLevel1, &req.ChannelLevel2,
		&req.Remark, &req.VisitDate,
	} {
		*field = sanitize.TextPtr(*field)
	}
	if req.CustomerPhone != nil {
		normalized := s.deps.Phones.Normalize(*req.CustomerPhone)
		req.CustomerPhone = &normalized
	}
	return req
}

// applyRequest copies every present field of req onto lead.
func applyRequest(lead *repository.Lead, req transport.SaveLeadRequest) error {
	if req.VisitDate != nil {
		visitDate, err := time.Parse(validator.DateLayout, *req.VisitDate)
		if err != nil {
			return apperr.Validation("invalid date").WithField("visitDate")
		}
		lead.VisitDate = visitDate
	}
	if req.StoreID != nil && *req.StoreID > 0 {
		lead.StoreID = *req.StoreID
	}

	setString(&lead.ArriveTime, req.ArriveTime)
	setString(&lead.LeaveTime, req.LeaveTime)
	setString(&lead.ReceptionStatus, req.ReceptionStatus)
	setString(&lead.SalesConsultant, req.SalesConsultant)
	setString(&lead.CustomerName, req.CustomerName)
	setString(&lead.CustomerPhone, req.CustomerPhone)
	setString(&lead.CustomerGender, req.CustomerGender)
	setString(&lead.CustomerAgeRange, req.CustomerAgeRange)
	setString(&lead.CustomerResidence, req.CustomerResidence)
	setString(&lead.CurrentVehicle, req.CurrentVehicle)
	setString(&lead.OpportunityLevel, req.OpportunityLevel)
	setString(&lead.ChannelCategory, req.ChannelCategory)
	setString(&lead.ChannelSource, req.ChannelSource)
	setString(&lead.ChannelLevel1, req.ChannelLevel1)
	setString(&lead.ChannelLevel2, req.ChannelLevel2)
	setString(&lead.Remark, req.Remark)

	setFlag(&lead.TestDrive, req.TestDrive.Ptr())
	setFlag(&lead.PriceNegotiation, req.PriceNegotiation.Ptr())
	setFlag(&lead.DealDone, req.DealDone.Ptr())
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
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

func outcomeOf(err error) string {
	switch apperr.GetKind(err) {
	case apperr.KindValidation, apperr.KindBadRequest:
		return "invalid"
	case apperr.KindForbidden:
		return "forbidden"
	case apperr.KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// ToResponse maps a lead to its API shape.
func ToResponse(l repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                l.ID,
		VisitDate:         l.VisitDate.Format(validator.DateLayout),
		ArriveTime:        l.ArriveTime,
		LeaveTime:         l.LeaveTime,
		ReceptionStatus:   l.ReceptionStatus,
		SalesConsultant:   l.SalesConsultant,
		SalesConsultantID: l.SalesConsultantID,
		CustomerID:        l.CustomerID,
		CustomerName:      l.CustomerName,
		CustomerPhone:     l.CustomerPhone,
		CustomerGender:    l.CustomerGender,
		CustomerAgeRange:  l.CustomerAgeRange,
		CustomerResidence: l.CustomerResidence,
		CurrentVehicle:    l.CurrentVehicle,
		OpportunityLevel:  l.OpportunityLevel,
		TestDrive:         l.TestDrive,
		PriceNegotiation:  l.PriceNegotiation,
		DealDone:          l.DealDone,
		FocusModelID:      l.FocusModelID,
		FocusModelName:    l.FocusModelName,
		DealModelID:       l.DealModelID,
		DealModelName:     l.DealModelName,
		ChannelID:         l.ChannelID,
		ChannelCategory:   l.ChannelCategory,
		ChannelSource:     l.ChannelSource,
		ChannelLevel1:     l.ChannelLevel1,
		ChannelLevel2:     l.ChannelLevel2,
		StoreID:           l.StoreID,
		RegionID:          l.RegionID,
		BrandID:           l.BrandID,
		DepartmentID:      l.DepartmentID,
		Remark:            l.Remark,
		CustomerSnapshot:  l.CustomerSnapshot,
		ChannelSnapshot:   l.ChannelSnapshot,
		ProductSnapshot:   l.ProductSnapshot,
		CreatedBy:         l.CreatedBy,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}
