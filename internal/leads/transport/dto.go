package transport

import (
	"encoding/json"
	"time"

	"hxms_backend/platform/httpkit"
)

// SaveLeadRequest creates a lead, or edits one in place when ID is set.
// Absent fields are left untouched on edit.
type SaveLeadRequest struct {
	ID                *int64       `json:"id,omitempty" validate:"omitempty,gt=0"`
	VisitDate         *string      `json:"visitDate,omitempty" validate:"omitempty,ymd"`
	ArriveTime        *string      `json:"arriveTime,omitempty" validate:"omitempty,max=16"`
	LeaveTime         *string      `json:"leaveTime,omitempty" validate:"omitempty,max=16"`
	ReceptionStatus   *string      `json:"receptionStatus,omitempty" validate:"omitempty,max=32"`
	SalesConsultant   *string      `json:"salesConsultant,omitempty" validate:"omitempty,max=100"`
	CustomerName      *string      `json:"customerName,omitempty" validate:"omitempty,max=100"`
	CustomerPhone     *string      `json:"customerPhone,omitempty" validate:"omitempty,max=32"`
	CustomerGender    *string      `json:"customerGender,omitempty" validate:"omitempty,max=16"`
	CustomerAgeRange  *string      `json:"customerAgeRange,omitempty" validate:"omitempty,max=32"`
	CustomerResidence *string      `json:"customerResidence,omitempty" validate:"omitempty,max=200"`
	CurrentVehicle    *string      `json:"currentVehicle,omitempty" validate:"omitempty,max=100"`
	OpportunityLevel  *string      `json:"opportunityLevel,omitempty" validate:"omitempty,max=32"`
	TestDrive         httpkit.Flag `json:"testDrive,omitzero"`
	PriceNegotiation  httpkit.Flag `json:"priceNegotiation,omitzero"`
	DealDone          httpkit.Flag `json:"dealDone,omitzero"`
	FocusModelID      *int64       `json:"focusModelId,omitempty" validate:"omitempty,gt=0"`
	FocusModelName    *string      `json:"focusModelName,omitempty" validate:"omitempty,max=100"`
	DealModelID       *int64       `json:"dealModelId,omitempty" validate:"omitempty,gt=0"`
	DealModelName     *string      `json:"dealModelName,omitempty" validate:"omitempty,max=100"`
	ChannelCategory   *string      `json:"channelCategory,omitempty" validate:"omitempty,max=64"`
	ChannelSource     *string      `json:"channelSource,omitempty" validate:"omitempty,max=64"`
	ChannelLevel1     *string      `json:"channelLevel1,omitempty" validate:"omitempty,max=64"`
	ChannelLevel2     *string      `json:"channelLevel2,omitempty" validate:"omitempty,max=64"`
	StoreID           *int64       `json:"storeId,omitempty" validate:"omitempty,gt=0"`
	Remark            *string      `json:"remark,omitempty" validate:"omitempty,max=1000"`
}

// IsEdit reports whether the request targets an existing lead.
func (r SaveLeadRequest) IsEdit() bool {
	return r.ID != nil
}

// LeadResponse is a lead as returned by the API.
type LeadResponse struct {
	ID                int64           `json:"id"`
	VisitDate         string          `json:"visitDate"`
	ArriveTime        string          `json:"arriveTime"`
	LeaveTime         string          `json:"leaveTime"`
	ReceptionStatus   string          `json:"receptionStatus"`
	SalesConsultant   string          `json:"salesConsultant"`
	SalesConsultantID *int64          `json:"salesConsultantId,omitempty"`
	CustomerID        *int64          `json:"customerId,omitempty"`
	CustomerName      string          `json:"customerName"`
	CustomerPhone     string          `json:"customerPhone"`
	CustomerGender    string          `json:"customerGender"`
	CustomerAgeRange  string          `json:"customerAgeRange"`
	CustomerResidence string          `json:"customerResidence"`
	CurrentVehicle    string          `json:"currentVehicle"`
	OpportunityLevel  string          `json:"opportunityLevel"`
	TestDrive         bool            `json:"testDrive"`
	PriceNegotiation  bool            `json:"priceNegotiation"`
	DealDone          bool            `json:"dealDone"`
	FocusModelID      *int64          `json:"focusModelId,omitempty"`
	FocusModelName    string          `json:"focusModelName"`
	DealModelID       *int64          `json:"dealModelId,omitempty"`
	DealModelName     string          `json:"dealModelName"`
	ChannelID         *int64          `json:"channelId,omitempty"`
	ChannelCategory   string          `json:"channelCategory"`
	ChannelSource     string          `json:"channelSource"`
	ChannelLevel1     string          `json:"channelLevel1"`
	ChannelLevel2     string          `json:"channelLevel2"`
	StoreID           int64           `json:"storeId"`
	RegionID          *int64          `json:"regionId,omitempty"`
	BrandID           *int64          `json:"brandId,omitempty"`
	DepartmentID      *int64          `json:"departmentId,omitempty"`
	Remark            string          `json:"remark"`
	CustomerSnapshot  json.RawMessage `json:"customerSnapshot,omitempty"`
	ChannelSnapshot   json.RawMessage `json:"channelSnapshot,omitempty"`
	ProductSnapshot   json.RawMessage `json:"productSnapshot,omitempty"`
	CreatedBy         *int64          `json:"createdBy,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// SaveLeadResponse is the outcome of a save. Queued saves carry only the task id.
type SaveLeadResponse struct {
	Lead   *LeadResponse `json:"lead,omitempty"`
	Queued bool          `json:"queued"`
	TaskID string        `json:"taskId,omitempty"`
}

// ListLeadsRequest is the lead list query string.
type ListLeadsRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Search   string `form:"search"`
	Level    string `form:"level"`
	StoreID  *int64 `form:"storeId"`
	DateFrom string `form:"dateFrom" validate:"omitempty,ymd"`
	DateTo   string `form:"dateTo" validate:"omitempty,ymd"`
}

// LeadListResponse is one page of leads.
type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
