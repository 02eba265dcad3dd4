package customers

import (
	"context"
	"errors"
	"testing"
	"time"

	"hxms_backend/internal/scope"
	"hxms_backend/platform/metrics"
)

type memStore struct {
	rows   map[int64]Customer
	nextID int64
	// raceOnInsert simulates a concurrent writer committing the same key
	// between the lookup and the insert.
	raceOnInsert bool
	findErr      error
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]Customer{}, nextID: 1}
}

func (m *memStore) FindByNaturalKey(_ context.Context, storeID int64, phone, name string) (Customer, error) {
	if m.findErr != nil {
		return Customer{}, m.findErr
	}
	for _, c := range m.rows {
		if c.StoreID == storeID && c.Phone == phone && c.Name == name {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

func (m *memStore) add(p FindOrCreateParams) Customer {
	c := Customer{ID: m.nextID, StoreID: p.StoreID, Phone: p.Phone, Name: p.Name, Profile: p.Profile, CreatedAt: time.Now()}
	m.rows[c.ID] = c
	m.nextID++
	return c
}

func (m *memStore) Insert(_ context.Context, p FindOrCreateParams) (Customer, error) {
	if m.raceOnInsert {
		m.raceOnInsert = false
		m.add(FindOrCreateParams{StoreID: p.StoreID, Phone: p.Phone, Name: p.Name, Profile: Profile{Gender: "other writer"}})
		return Customer{}, ErrConflict
	}
	for _, c := range m.rows {
		if c.StoreID == p.StoreID && c.Phone == p.Phone && c.Name == p.Name {
			return Customer{}, ErrConflict
		}
	}
	return m.add(p), nil
}

func (m *memStore) UpdateProfile(_ context.Context, id int64, p FindOrCreateParams) (Customer, error) {
	c, ok := m.rows[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	c.Profile = p.Profile
	c.UpdatedAt = time.Now()
	m.rows[id] = c
	return c, nil
}

func (m *memStore) List(context.Context, ListParams) ([]Customer, int, error) {
	items := make([]Customer, 0, len(m.rows))
	for _, c := range m.rows {
		items = append(items, c)
	}
	return items, len(items), nil
}

func TestFindOrCreateReusesNaturalKeyAndOverwritesProfile(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, FindOrCreateParams{StoreID: 7, Phone: "13900000001", Name: "Zhang", Profile: Profile{Gender: "male", Residence: "Pudong"}})
	if err != nil {
		t.Fatalf("first find or create: %v", err)
	}
	second, err := svc.FindOrCreate(ctx, FindOrCreateParams{StoreID: 7, Phone: " 13900000001 ", Name: "Zhang", Profile: Profile{Gender: "male"}})
	if err != nil {
		t.Fatalf("second find or create: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same customer, got %d and %d", first.ID, second.ID)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected exactly one customer row, got %d", len(store.rows))
	}
	if store.rows[first.ID].Profile.Residence != "" {
		t.Fatalf("expected last submission to win, residence still %q", store.rows[first.ID].Profile.Residence)
	}
}

func TestFindOrCreateDistinguishesStoresAndNames(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	for _, p := range []FindOrCreateParams{
		{StoreID: 7, Phone: "13900000001", Name: "Zhang"},
		{StoreID: 8, Phone: "13900000001", Name: "Zhang"},
		{StoreID: 7, Phone: "13900000001", Name: "Li"},
	} {
		if _, err := svc.FindOrCreate(ctx, p); err != nil {
			t.Fatalf("find or create %+v: %v", p, err)
		}
	}
	if len(store.rows) != 3 {
		t.Fatalf("expected three customers, got %d", len(store.rows))
	}
}

func TestFindOrCreateBlankPhoneLinksNothing(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)

	got, err := svc.FindOrCreate(context.Background(), FindOrCreateParams{StoreID: 7, Phone: "  ", Name: "Zhang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no customer, got %+v", got)
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(store.rows))
	}
}

func TestFindOrCreateRecoversFromInsertRace(t *testing.T) {
	store := newMemStore()
	store.raceOnInsert = true
	svc := NewService(store, metrics.New(), nil)

	got, err := svc.FindOrCreate(context.Background(), FindOrCreateParams{StoreID: 7, Phone: "13900000001", Name: "Zhang", Profile: Profile{Gender: "female"}})
	if err != nil {
		t.Fatalf("expected race to be recovered, got %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected one row after race, got %d", len(store.rows))
	}
	if got.Profile.Gender != "female" {
		t.Fatalf("expected our profile to be applied after re-read, got %q", got.Profile.Gender)
	}
}

func TestFindOrCreateSurfacesLookupFailure(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("db down")
	svc := NewService(store, nil, nil)

	if _, err := svc.FindOrCreate(context.Background(), FindOrCreateParams{StoreID: 7, Phone: "1", Name: "a"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestListComputesPages(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.FindOrCreate(ctx, FindOrCreateParams{StoreID: 7, Phone: "1", Name: name}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	result, err := svc.List(ctx, ListParams{Scope: scope.All(), Page: scope.NewPage(1, 2, 100)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 3 || result.TotalPages != 2 || result.PageSize != 2 {
		t.Fatalf("unexpected paging: %+v", result)
	}
}
