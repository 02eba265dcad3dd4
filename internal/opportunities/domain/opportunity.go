package domain

import (
	"strconv"
	"strings"
	"time"
)

// Opportunity is one sales-pursuit cycle for a customer at a store.
type Opportunity struct {
	ID            int64
	CustomerKey   string
	CustomerID    *int64
	CustomerName  string
	CustomerPhone string
	Profile       Profile

	Status     Status
	Level      string
	FailReason string

	OwnerID           *int64
	OwnerName         string
	OwnerDepartmentID *int64

	StoreID      int64
	RegionID     *int64
	BrandID      *int64
	DepartmentID *int64

	OpenDate        time.Time
	LatestVisitDate time.Time
	ClosedDate      *time.Time

	ChannelID *int64
	Channel   Channel

	FocusModelID     *int64
	FocusModelName   string
	TestDrive        bool
	PriceNegotiation bool

	OpenLeadID *int64
	LastLeadID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile mirrors the customer's demographic fields.
type Profile struct {
	Gender         string
	AgeRange       string
	Residence      string
	CurrentVehicle string
}

// Channel mirrors the lead's channel attribution.
type Channel struct {
	Category string
	Source   string
	Level1   string
	Level2   string
}

// Owner is the accountable employee of a cycle.
type Owner struct {
	EmployeeID   int64
	Name         string
	DepartmentID *int64
}

// Visit is the part of a saved lead the engine consumes.
type Visit struct {
	LeadID        int64
	CustomerID    *int64
	CustomerName  string
	CustomerPhone string
	Profile       Profile
	VisitDate     time.Time

	Level            string
	TestDrive        bool
	PriceNegotiation bool
	DealDone         bool

	ConsultantID *int64

	StoreID      int64
	RegionID     *int64
	BrandID      *int64
	DepartmentID *int64

	ChannelID *int64
	Channel   Channel

	FocusModelID   *int64
	FocusModelName string
}

// CustomerKey is the business key cycles are matched on: the customer id
// when linked, else the phone. Empty when neither is known.
func (v Visit) CustomerKey() string {
	if v.CustomerID != nil && *v.CustomerID > 0 {
		return "c:" + strconv.FormatInt(*v.CustomerID, 10)
	}
	if phone := strings.TrimSpace(v.CustomerPhone); phone != "" {
		return "p:" + phone
	}
	return ""
}

// Action is the engine's decision for one visit.
type Action string

const (
	ActionCreate Action = "created"
	ActionReopen Action = "reopened"
	ActionUpdate Action = "visit"
	ActionWon    Action = "won"
	ActionSkip   Action = "skipped_no_owner"
	ActionEdit   Action = "edited"
)

// Decide picks what a visit does to the latest cycle. A cycle last touched
// by the same lead is always updated in place so re-saving a lead never opens
// another cycle. New cycles need an owner; without one the visit is skipped.
func Decide(latest *Opportunity, leadID int64, hasOwner bool) Action {
	if latest != nil {
		if latest.LastLeadID != nil && *latest.LastLeadID == leadID {
			return ActionUpdate
		}
		if !latest.Status.IsTerminal() {
			return ActionUpdate
		}
	}
	if !hasOwner {
		return ActionSkip
	}
	if latest == nil {
		return ActionCreate
	}
	return ActionReopen
}

// NewFromVisit opens a cycle. A visit that already closed the deal opens
// directly as won.
func NewFromVisit(v Visit, owner Owner) Opportunity {
	leadID := v.LeadID
	ownerID := owner.EmployeeID
	opp := Opportunity{
		CustomerKey:       v.CustomerKey(),
		CustomerID:        v.CustomerID,
		CustomerName:      strings.TrimSpace(v.CustomerName),
		CustomerPhone:     strings.TrimSpace(v.CustomerPhone),
		Profile:           v.Profile,
		Status:            StatusInProgress,
		Level:             v.Level,
		OwnerID:           &ownerID,
		OwnerName:         owner.Name,
		OwnerDepartmentID: owner.DepartmentID,
		StoreID:           v.StoreID,
		RegionID:          v.RegionID,
		BrandID:           v.BrandID,
		DepartmentID:      v.DepartmentID,
		OpenDate:          v.VisitDate,
		LatestVisitDate:   v.VisitDate,
		ChannelID:         v.ChannelID,
		Channel:           v.Channel,
		FocusModelID:      v.FocusModelID,
		FocusModelName:    v.FocusModelName,
		TestDrive:         v.TestDrive,
		PriceNegotiation:  v.PriceNegotiation,
		OpenLeadID:        &leadID,
		LastLeadID:        &leadID,
	}
	if opp.DepartmentID == nil {
		opp.DepartmentID = owner.DepartmentID
	}
	if v.DealDone {
		opp.Status = StatusWon
		closed := v.VisitDate
		opp.ClosedDate = &closed
	}
	return opp
}

// ApplyVisit folds a later visit into an existing cycle and reports whether
// it closed the deal. Flags only ever turn on; the owner changes only when
// one was resolved.
func ApplyVisit(opp *Opportunity, v Visit, owner *Owner) (won bool) {
	opp.LatestVisitDate = v.VisitDate
	if name := strings.TrimSpace(v.CustomerName); name != "" {
		opp.CustomerName = name
	}
	if phone := strings.TrimSpace(v.CustomerPhone); phone != "" {
		opp.CustomerPhone = phone
	}
	if opp.CustomerID == nil {
		opp.CustomerID = v.CustomerID
	}
	mergeProfile(&opp.Profile, v.Profile)
	if v.Level != "" {
		opp.Level = v.Level
	}
	if v.FocusModelID != nil || v.FocusModelName != "" {
		opp.FocusModelID = v.FocusModelID
		opp.FocusModelName = v.FocusModelName
	}
	opp.TestDrive = opp.TestDrive || v.TestDrive
	opp.PriceNegotiation = opp.PriceNegotiation || v.PriceNegotiation

	if owner != nil {
		ownerID := owner.EmployeeID
		opp.OwnerID = &ownerID
		opp.OwnerName = owner.Name
		opp.OwnerDepartmentID = owner.DepartmentID
	}

	leadID := v.LeadID
	opp.LastLeadID = &leadID

	if v.DealDone && opp.Status != StatusWon {
		opp.Status = StatusWon
		opp.FailReason = ""
		closed := v.VisitDate
		opp.ClosedDate = &closed
		return true
	}
	return false
}

func mergeProfile(dst *Profile, src Profile) {
	if src.Gender != "" {
		dst.Gender = src.Gender
	}
	if src.AgeRange != "" {
		dst.AgeRange = src.AgeRange
	}
	if src.Residence != "" {
		dst.Residence = src.Residence
	}
	if src.CurrentVehicle != "" {
		dst.CurrentVehicle = src.CurrentVehicle
	}
}

// Edit is a direct correction of a cycle. Nil fields are left untouched.
type Edit struct {
	Status           *Status
	Level            *string
	FailReason       *string
	TestDrive        *bool
	PriceNegotiation *bool
	CustomerName     *string
	CustomerPhone    *string
	Gender           *string
	AgeRange         *string
	Residence        *string
	CurrentVehicle   *string
}

// ApplyEdit applies a direct edit. The fail reason survives only on lost
// cycles; closing stamps the closed date and reopening clears it.
func ApplyEdit(opp *Opportunity, e Edit, today time.Time) {
	if e.Status != nil && *e.Status != opp.Status {
		switch {
		case e.Status.IsTerminal() && !opp.Status.IsTerminal():
			closed := today
			opp.ClosedDate = &closed
		case !e.Status.IsTerminal():
			opp.ClosedDate = nil
		}
		opp.Status = *e.Status
	}
	setString(&opp.Level, e.Level)
	setString(&opp.CustomerName, e.CustomerName)
	setString(&opp.CustomerPhone, e.CustomerPhone)
	setString(&opp.Profile.Gender, e.Gender)
	setString(&opp.Profile.AgeRange, e.AgeRange)
	setString(&opp.Profile.Residence, e.Residence)
	setString(&opp.Profile.CurrentVehicle, e.CurrentVehicle)
	if e.TestDrive != nil {
		opp.TestDrive = *e.TestDrive
	}
	if e.PriceNegotiation != nil {
		opp.PriceNegotiation = *e.PriceNegotiation
	}

	if opp.Status == StatusLost {
		setString(&opp.FailReason, e.FailReason)
	} else {
		opp.FailReason = ""
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
