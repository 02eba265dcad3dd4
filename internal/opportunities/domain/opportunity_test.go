package domain

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func i64(v int64) *int64 { return &v }

func TestParseStatusAcceptsLabels(t *testing.T) {
	cases := map[string]Status{
		"in_progress": StatusInProgress,
		" WON ":       StatusWon,
		"跟进中":         StatusInProgress,
		"已战败":         StatusLost,
		"已成交":         StatusWon,
	}
	for raw, want := range cases {
		got, ok := ParseStatus(raw)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q): expected %s, got %s (%v)", raw, want, got, ok)
		}
	}
	if _, ok := ParseStatus("closed"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestCustomerKeyPrefersCustomerID(t *testing.T) {
	if got := (Visit{CustomerID: i64(5), CustomerPhone: "139"}).CustomerKey(); got != "c:5" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := (Visit{CustomerPhone: " 139 "}).CustomerKey(); got != "p:139" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := (Visit{}).CustomerKey(); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestDecide(t *testing.T) {
	open := &Opportunity{Status: StatusInProgress, LastLeadID: i64(1)}
	won := &Opportunity{Status: StatusWon, LastLeadID: i64(1)}
	lost := &Opportunity{Status: StatusLost, LastLeadID: i64(1)}

	cases := []struct {
		name     string
		latest   *Opportunity
		leadID   int64
		hasOwner bool
		want     Action
	}{
		{"first visit", nil, 2, true, ActionCreate},
		{"first visit without owner", nil, 2, false, ActionSkip},
		{"open cycle", open, 2, true, ActionUpdate},
		{"open cycle without owner still updates", open, 2, false, ActionUpdate},
		{"after win", won, 2, true, ActionReopen},
		{"after loss", lost, 2, true, ActionReopen},
		{"after loss without owner", lost, 2, false, ActionSkip},
		{"same lead re-saved after win", won, 1, true, ActionUpdate},
		{"same lead re-saved after loss without owner", lost, 1, false, ActionUpdate},
	}
	for _, tc := range cases {
		if got := Decide(tc.latest, tc.leadID, tc.hasOwner); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestNewFromVisitOpensWonWhenDealDone(t *testing.T) {
	v := Visit{LeadID: 3, CustomerPhone: "139", VisitDate: day("2025-02-01"), StoreID: 7, DealDone: true}
	opp := NewFromVisit(v, Owner{EmployeeID: 42, Name: "Wang", DepartmentID: i64(70)})

	if opp.Status != StatusWon {
		t.Fatalf("expected won, got %s", opp.Status)
	}
	if !opp.OpenDate.Equal(day("2025-02-01")) || !opp.LatestVisitDate.Equal(day("2025-02-01")) {
		t.Fatalf("unexpected dates: %v %v", opp.OpenDate, opp.LatestVisitDate)
	}
	if opp.ClosedDate == nil || *opp.OwnerID != 42 || *opp.DepartmentID != 70 {
		t.Fatalf("unexpected opportunity: %+v", opp)
	}
	if *opp.OpenLeadID != 3 || *opp.LastLeadID != 3 {
		t.Fatalf("expected lead 3 to be recorded")
	}
}

func TestApplyVisitMergesFlagsAndKeepsOwnerWhenUnresolved(t *testing.T) {
	opp := Opportunity{
		Status:          StatusInProgress,
		CustomerName:    "Zhang",
		CustomerPhone:   "139",
		TestDrive:       true,
		OwnerID:         i64(42),
		OwnerName:       "Wang",
		OpenDate:        day("2025-01-01"),
		LatestVisitDate: day("2025-01-01"),
		LastLeadID:      i64(1),
	}

	won := ApplyVisit(&opp, Visit{LeadID: 2, CustomerName: "Zhang San", VisitDate: day("2025-01-05"), PriceNegotiation: true}, nil)
	if won {
		t.Fatalf("did not expect a win")
	}
	if !opp.TestDrive || !opp.PriceNegotiation {
		t.Fatalf("expected flags to stay on: %+v", opp)
	}
	if opp.CustomerName != "Zhang San" || opp.CustomerPhone != "139" {
		t.Fatalf("unexpected identity: %q %q", opp.CustomerName, opp.CustomerPhone)
	}
	if *opp.OwnerID != 42 || !opp.LatestVisitDate.Equal(day("2025-01-05")) || !opp.OpenDate.Equal(day("2025-01-01")) {
		t.Fatalf("unexpected update: %+v", opp)
	}
	if *opp.LastLeadID != 2 {
		t.Fatalf("expected last lead 2, got %d", *opp.LastLeadID)
	}
}

func TestApplyVisitWinsOnce(t *testing.T) {
	opp := Opportunity{Status: StatusInProgress, FailReason: "stale"}
	if !ApplyVisit(&opp, Visit{LeadID: 2, VisitDate: day("2025-01-05"), DealDone: true}, &Owner{EmployeeID: 9}) {
		t.Fatalf("expected win")
	}
	if opp.Status != StatusWon || opp.ClosedDate == nil || opp.FailReason != "" || *opp.OwnerID != 9 {
		t.Fatalf("unexpected won cycle: %+v", opp)
	}
	if ApplyVisit(&opp, Visit{LeadID: 2, VisitDate: day("2025-01-05"), DealDone: true}, nil) {
		t.Fatalf("expected repeated win to be a no-op transition")
	}
}

func TestApplyEditClearsFailReasonUnlessLost(t *testing.T) {
	lost := StatusLost
	reason := "bought elsewhere"
	opp := Opportunity{Status: StatusInProgress}

	ApplyEdit(&opp, Edit{Status: &lost, FailReason: &reason}, day("2025-03-01"))
	if opp.Status != StatusLost || opp.FailReason != reason || opp.ClosedDate == nil {
		t.Fatalf("unexpected lost cycle: %+v", opp)
	}

	open := StatusInProgress
	ApplyEdit(&opp, Edit{Status: &open, FailReason: &reason}, day("2025-03-02"))
	if opp.FailReason != "" || opp.ClosedDate != nil {
		t.Fatalf("expected fail reason and closed date cleared: %+v", opp)
	}

	off := false
	opp.TestDrive = true
	ApplyEdit(&opp, Edit{TestDrive: &off}, day("2025-03-03"))
	if opp.TestDrive {
		t.Fatalf("direct edits may turn flags off")
	}
}
