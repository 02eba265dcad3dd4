package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"hxms_backend/internal/scope"
	"hxms_backend/platform/db"

	"github.com/jackc/pgx/v5"
)

// Repository implements LeadRepository on PostgreSQL.
type Repository struct {
	db db.DBTX
}

// New creates a lead repository.
func New(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

var _ LeadRepository = (*Repository)(nil)

const leadColumns = `l.id, l.visit_date, l.arrive_time, l.leave_time, l.reception_status,
	l.sales_consultant, l.sales_consultant_id,
	l.customer_id, l.customer_name, l.customer_phone, l.customer_gender, l.customer_age_range,
	l.customer_residence, l.current_vehicle,
	l.opportunity_level, l.test_drive, l.price_negotiation, l.deal_done,
	l.focus_model_id, l.focus_model_name, l.deal_model_id, l.deal_model_name,
	l.channel_id, l.channel_category, l.channel_source, l.channel_level1, l.channel_level2,
	l.store_id, l.region_id, l.brand_id, l.department_id, l.remark,
	l.customer_snapshot, l.channel_snapshot, l.product_snapshot,
	l.created_by, l.created_at, l.updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.VisitDate, &l.ArriveTime, &l.LeaveTime, &l.ReceptionStatus,
		&l.SalesConsultant, &l.SalesConsultantID,
		&l.CustomerID, &l.CustomerName, &l.CustomerPhone, &l.CustomerGender, &l.CustomerAgeRange,
		&l.CustomerResidence, &l.CurrentVehicle,
		&l.OpportunityLevel, &l.TestDrive, &l.PriceNegotiation, &l.DealDone,
		&l.FocusModelID, &l.FocusModelName, &l.DealModelID, &l.DealModelName,
		&l.ChannelID, &l.ChannelCategory, &l.ChannelSource, &l.ChannelLevel1, &l.ChannelLevel2,
		&l.StoreID, &l.RegionID, &l.BrandID, &l.DepartmentID, &l.Remark,
		&l.CustomerSnapshot, &l.ChannelSnapshot, &l.ProductSnapshot,
		&l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// Create inserts a lead.
func (r *Repository) Create(ctx context.Context, lead Lead) (Lead, error) {
	created, err := scanLead(r.db.QueryRow(ctx, `
		INSERT INTO leads AS l (
			visit_date, arrive_time, leave_time, reception_status,
			sales_consultant, sales_consultant_id,
			customer_id, customer_name, customer_phone, customer_gender, customer_age_range,
			customer_residence, current_vehicle,
			opportunity_level, test_drive, price_negotiation, deal_done,
			focus_model_id, focus_model_name, deal_model_id, deal_model_name,
			channel_id, channel_category, channel_source, channel_level1, channel_level2,
			store_id, region_id, brand_id, department_id, remark,
			customer_snapshot, channel_snapshot, product_snapshot, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35
		)
		RETURNING `+leadColumns,
		lead.VisitDate, lead.ArriveTime, lead.LeaveTime, lead.ReceptionStatus,
		lead.SalesConsultant, lead.SalesConsultantID,
		lead.CustomerID, lead.CustomerName, lead.CustomerPhone, lead.CustomerGender, lead.CustomerAgeRange,
		lead.CustomerResidence, lead.CurrentVehicle,
		lead.OpportunityLevel, lead.TestDrive, lead.PriceNegotiation, lead.DealDone,
		lead.FocusModelID, lead.FocusModelName, lead.DealModelID, lead.DealModelName,
		lead.ChannelID, lead.ChannelCategory, lead.ChannelSource, lead.ChannelLevel1, lead.ChannelLevel2,
		lead.StoreID, lead.RegionID, lead.BrandID, lead.DepartmentID, lead.Remark,
		lead.CustomerSnapshot, lead.ChannelSnapshot, lead.ProductSnapshot, lead.CreatedBy,
	))
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return created, nil
}

// GetByID loads one lead.
func (r *Repository) GetByID(ctx context.Context, id int64) (Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads l WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

type columnChange struct {
	column string
	value  interface{}
}

// changedColumns lists the columns whose value differs between before and after.
func changedColumns(before, after Lead) []columnChange {
	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{!before.VisitDate.Equal(after.VisitDate), "visit_date", after.VisitDate},
		{before.ArriveTime != after.ArriveTime, "arrive_time", after.ArriveTime},
		{before.LeaveTime != after.LeaveTime, "leave_time", after.LeaveTime},
		{before.ReceptionStatus != after.ReceptionStatus, "reception_status", after.ReceptionStatus},
		{before.SalesConsultant != after.SalesConsultant, "sales_consultant", after.SalesConsultant},
		{!sameID(before.SalesConsultantID, after.SalesConsultantID), "sales_consultant_id", after.SalesConsultantID},
		{!sameID(before.CustomerID, after.CustomerID), "customer_id", after.CustomerID},
		{before.CustomerName != after.CustomerName, "customer_name", after.CustomerName},
		{before.CustomerPhone != after.CustomerPhone, "customer_phone", after.CustomerPhone},
		{before.CustomerGender != after.CustomerGender, "customer_gender", after.CustomerGender},
		{before.CustomerAgeRange != after.CustomerAgeRange, "customer_age_range", after.CustomerAgeRange},
		{before.CustomerResidence != after.CustomerResidence, "customer_residence", after.CustomerResidence},
		{before.CurrentVehicle != after.CurrentVehicle, "current_vehicle", after.CurrentVehicle},
		{before.OpportunityLevel != after.OpportunityLevel, "opportunity_level", after.OpportunityLevel},
		{before.TestDrive != after.TestDrive, "test_drive", after.TestDrive},
		{before.PriceNegotiation != after.PriceNegotiation, "price_negotiation", after.PriceNegotiation},
		{before.DealDone != after.DealDone, "deal_done", after.DealDone},
		{!sameID(before.FocusModelID, after.FocusModelID), "focus_model_id", after.FocusModelID},
		{before.FocusModelName != after.FocusModelName, "focus_model_name", after.FocusModelName},
		{!sameID(before.DealModelID, after.DealModelID), "deal_model_id", after.DealModelID},
		{before.DealModelName != after.DealModelName, "deal_model_name", after.DealModelName},
		{!sameID(before.ChannelID, after.ChannelID), "channel_id", after.ChannelID},
		{before.ChannelCategory != after.ChannelCategory, "channel_category", after.ChannelCategory},
		{before.ChannelSource != after.ChannelSource, "channel_source", after.ChannelSource},
		{before.ChannelLevel1 != after.ChannelLevel1, "channel_level1", after.ChannelLevel1},
		{before.ChannelLevel2 != after.ChannelLevel2, "channel_level2", after.ChannelLevel2},
		{before.StoreID != after.StoreID, "store_id", after.StoreID},
		{!sameID(before.RegionID, after.RegionID), "region_id", after.RegionID},
		{!sameID(before.BrandID, after.BrandID), "brand_id", after.BrandID},
		{!sameID(before.DepartmentID, after.DepartmentID), "department_id", after.DepartmentID},
		{before.Remark != after.Remark, "remark", after.Remark},
		{!bytes.Equal(before.CustomerSnapshot, after.CustomerSnapshot), "customer_snapshot", after.CustomerSnapshot},
		{!bytes.Equal(before.ChannelSnapshot, after.ChannelSnapshot), "channel_snapshot", after.ChannelSnapshot},
		{!bytes.Equal(before.ProductSnapshot, after.ProductSnapshot), "product_snapshot", after.ProductSnapshot},
	}

	changes := make([]columnChange, 0, len(fields))
	for _, field := range fields {
		if field.enabled {
			changes = append(changes, columnChange{column: field.column, value: field.value})
		}
	}
	return changes
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func buildUpdate(id int64, changes []columnChange) (string, []interface{}) {
	setClauses := make([]string, 0, len(changes)+1)
	args := make([]interface{}, 0, len(changes)+1)
	argIdx := 1
	for _, change := range changes {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", change.column, argIdx))
		args = append(args, change.value)
		argIdx++
	}
	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE leads AS l SET %s WHERE l.id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, leadColumns)
	return query, args
}

// Update writes the changed columns of after. Nothing is written when the
// two are equal.
func (r *Repository) Update(ctx context.Context, before, after Lead) (Lead, error) {
	changes := changedColumns(before, after)
	if len(changes) == 0 {
		return before, nil
	}

	query, args := buildUpdate(before.ID, changes)
	updated, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return updated, nil
}

// List returns one page of leads inside the scope, newest visits first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	filter := scope.NewFilter(params.Scope, Columns)
	filter.Search(params.Search, "l.customer_name", "l.customer_phone")
	if params.Level != nil {
		filter.Equals("l.opportunity_level", *params.Level)
	}
	if params.StoreID != nil {
		filter.Equals("l.store_id", *params.StoreID)
	}
	if params.DateFrom != nil {
		filter.Cond("l.visit_date >= $%d", *params.DateFrom)
	}
	if params.DateTo != nil {
		filter.Cond("l.visit_date <= $%d", *params.DateTo)
	}
	where := filter.Where()
	args := filter.Args()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads l `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	next := filter.NextArg()
	query := fmt.Sprintf(`SELECT %s FROM leads l %s ORDER BY l.updated_at DESC, l.id DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, next, next+1)
	rows, err := r.db.Query(ctx, query, append(args, params.Page.PageSize, params.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate leads: %w", err)
	}
	return items, total, nil
}
