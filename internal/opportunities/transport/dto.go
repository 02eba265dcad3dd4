package transport

import (
	"time"

	"hxms_backend/platform/httpkit"
)

// EditRequest is a direct opportunity correction. ID is required; every
// other field is optional and left untouched when absent.
type EditRequest struct {
	ID               int64        `json:"id"`
	Status           *string      `json:"status,omitempty"`
	Level            *string      `json:"level,omitempty" validate:"omitempty,max=32"`
	FailReason       *string      `json:"failReason,omitempty" validate:"omitempty,max=500"`
	TestDrive        httpkit.Flag `json:"testDrive,omitzero"`
	PriceNegotiation httpkit.Flag `json:"priceNegotiation,omitzero"`
	CustomerName     *string      `json:"customerName,omitempty" validate:"omitempty,max=100"`
	CustomerPhone    *string      `json:"customerPhone,omitempty" validate:"omitempty,max=32"`
	Gender           *string      `json:"gender,omitempty" validate:"omitempty,max=16"`
	AgeRange         *string      `json:"ageRange,omitempty" validate:"omitempty,max=32"`
	Residence        *string      `json:"residence,omitempty" validate:"omitempty,max=200"`
	CurrentVehicle   *string      `json:"currentVehicle,omitempty" validate:"omitempty,max=100"`
}

// ListRequest is the opportunity list query string.
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Level    string `form:"level"`
	StoreID  *int64 `form:"storeId"`
	DateFrom string `form:"dateFrom" validate:"omitempty,ymd"`
	DateTo   string `form:"dateTo" validate:"omitempty,ymd"`
}

// OpportunityResponse is an opportunity as returned by the API.
type OpportunityResponse struct {
	ID                int64     `json:"id"`
	CustomerID        *int64    `json:"customerId,omitempty"`
	CustomerName      string    `json:"customerName"`
	CustomerPhone     string    `json:"customerPhone"`
	Gender            string    `json:"gender"`
	AgeRange          string    `json:"ageRange"`
	Residence         string    `json:"residence"`
	CurrentVehicle    string    `json:"currentVehicle"`
	Status            string    `json:"status"`
	StatusLabel       string    `json:"statusLabel"`
	Level             string    `json:"level"`
	FailReason        string    `json:"failReason,omitempty"`
	OwnerID           *int64    `json:"ownerId,omitempty"`
	OwnerName         string    `json:"ownerName"`
	OwnerDepartmentID *int64    `json:"ownerDepartmentId,omitempty"`
	StoreID           int64     `json:"storeId"`
	RegionID          *int64    `json:"regionId,omitempty"`
	BrandID           *int64    `json:"brandId,omitempty"`
	DepartmentID      *int64    `json:"departmentId,omitempty"`
	OpenDate          string    `json:"openDate"`
	LatestVisitDate   string    `json:"latestVisitDate"`
	ClosedDate        *string   `json:"closedDate,omitempty"`
	ChannelID         *int64    `json:"channelId,omitempty"`
	ChannelCategory   string    `json:"channelCategory"`
	ChannelSource     string    `json:"channelSource"`
	ChannelLevel1     string    `json:"channelLevel1"`
	ChannelLevel2     string    `json:"channelLevel2"`
	FocusModelID      *int64    `json:"focusModelId,omitempty"`
	FocusModelName    string    `json:"focusModelName"`
	TestDrive         bool      `json:"testDrive"`
	PriceNegotiation  bool      `json:"priceNegotiation"`
	OpenLeadID        *int64    `json:"openLeadId,omitempty"`
	LastLeadID        *int64    `json:"lastLeadId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ActivityResponse is one trail entry.
type ActivityResponse struct {
	LeadID    *int64                 `json:"leadId,omitempty"`
	Action    string                 `json:"action"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// DetailResponse is an opportunity with its trail.
type DetailResponse struct {
	OpportunityResponse
	Activity []ActivityResponse `json:"activity"`
}

// ListResponse is one page of opportunities.
type ListResponse struct {
	Items      []OpportunityResponse `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}
