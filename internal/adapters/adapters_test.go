package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"hxms_backend/internal/customers"
	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/leads/repository"
	"hxms_backend/internal/opportunities/domain"
	"hxms_backend/internal/org"
	"hxms_backend/internal/staff"
)

func id(v int64) *int64 { return &v }

func sampleLead() repository.Lead {
	return repository.Lead{
		ID:                11,
		VisitDate:         time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		CustomerID:        id(100),
		CustomerName:      "Zhang",
		CustomerPhone:     "13900000001",
		CustomerGender:    "F",
		OpportunityLevel:  "H",
		DealDone:          true,
		SalesConsultantID: id(42),
		StoreID:           7,
		RegionID:          id(2),
		BrandID:           id(1),
		DepartmentID:      id(70),
		ChannelID:         id(9),
		ChannelCategory:   "online",
		ChannelSource:     "app",
		FocusModelID:      id(3),
		FocusModelName:    "Model Y",
	}
}

func TestVisitFromLead(t *testing.T) {
	v := VisitFromLead(sampleLead())

	if v.LeadID != 11 || v.StoreID != 7 || *v.CustomerID != 100 || *v.ConsultantID != 42 {
		t.Fatalf("identity not carried: %+v", v)
	}
	if !v.DealDone || v.Level != "H" || v.Profile.Gender != "F" {
		t.Fatalf("visit facts not carried: %+v", v)
	}
	if v.Channel.Category != "online" || *v.ChannelID != 9 || *v.FocusModelID != 3 {
		t.Fatalf("channel or product not carried: %+v", v)
	}
	if !v.VisitDate.Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected visit date %s", v.VisitDate)
	}
}

type recordingEngine struct {
	visits []domain.Visit
	err    error
}

func (r *recordingEngine) UpsertFromLead(_ context.Context, v domain.Visit) (*domain.Opportunity, error) {
	r.visits = append(r.visits, v)
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Opportunity{ID: 1}, nil
}

func TestOpportunityDeriverAdapter(t *testing.T) {
	engine := &recordingEngine{}
	adapter := NewOpportunityDeriverAdapter(engine)

	if err := adapter.DeriveFromLead(context.Background(), sampleLead()); err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(engine.visits) != 1 || engine.visits[0].LeadID != 11 {
		t.Fatalf("expected one visit for lead 11, got %+v", engine.visits)
	}

	engine.err = errors.New("boom")
	if err := adapter.DeriveFromLead(context.Background(), sampleLead()); err == nil {
		t.Fatalf("expected engine error to surface")
	}
}

type nameFinder struct {
	emp staff.Employee
	err error
}

func (f nameFinder) FindActiveByNameAtStore(context.Context, string, int64) (staff.Employee, error) {
	return f.emp, f.err
}

func TestConsultantDirectoryAdapter(t *testing.T) {
	ctx := context.Background()

	c, err := NewConsultantDirectoryAdapter(nameFinder{err: staff.ErrNotFound}).FindConsultant(ctx, "Nobody", 7)
	if err != nil || c != nil {
		t.Fatalf("expected nil, nil for unknown name, got %+v, %v", c, err)
	}

	_, err = NewConsultantDirectoryAdapter(nameFinder{err: errors.New("db down")}).FindConsultant(ctx, "Li", 7)
	if err == nil {
		t.Fatalf("expected lookup failure to surface")
	}

	c, err = NewConsultantDirectoryAdapter(nameFinder{emp: staff.Employee{ID: 43, Name: "Li", DepartmentID: id(71)}}).FindConsultant(ctx, "Li", 7)
	if err != nil || c == nil || c.EmployeeID != 43 || *c.DepartmentID != 71 {
		t.Fatalf("unexpected consultant %+v, %v", c, err)
	}
}

type customerFinder struct {
	got customers.FindOrCreateParams
}

func (f *customerFinder) FindOrCreate(_ context.Context, p customers.FindOrCreateParams) (*customers.Customer, error) {
	f.got = p
	if p.Phone == "" {
		return nil, nil
	}
	return &customers.Customer{ID: 100, Name: p.Name, Phone: p.Phone, Profile: p.Profile}, nil
}

func TestCustomerLinkerAdapter(t *testing.T) {
	finder := &customerFinder{}
	adapter := NewCustomerLinkerAdapter(finder)

	ref, err := adapter.LinkCustomer(context.Background(), ports.CustomerInput{
		StoreID:  7,
		Phone:    "13900000001",
		Name:     "Zhang",
		Gender:   "F",
		RegionID: id(2),
	})
	if err != nil || ref == nil {
		t.Fatalf("link: %+v, %v", ref, err)
	}
	if ref.ID != 100 || ref.Gender != "F" {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if finder.got.StoreID != 7 || *finder.got.RegionID != 2 {
		t.Fatalf("attribution not forwarded: %+v", finder.got)
	}

	ref, err = adapter.LinkCustomer(context.Background(), ports.CustomerInput{StoreID: 7})
	if err != nil || ref != nil {
		t.Fatalf("expected no link without a phone, got %+v, %v", ref, err)
	}
}

type ancestors map[int64]org.Ancestors

func (a ancestors) ResolveAncestors(_ context.Context, storeID int64) org.Ancestors {
	return a[storeID]
}

func TestOrgAttributionAdapter(t *testing.T) {
	adapter := NewOrgAttributionAdapter(ancestors{7: {RegionID: id(2), BrandID: id(1)}})

	got := adapter.ResolveAttribution(context.Background(), 7)
	if *got.RegionID != 2 || *got.BrandID != 1 {
		t.Fatalf("unexpected attribution %+v", got)
	}
	if got := adapter.ResolveAttribution(context.Background(), 99); got.RegionID != nil || got.BrandID != nil {
		t.Fatalf("unknown store must leave attribution empty, got %+v", got)
	}
}
