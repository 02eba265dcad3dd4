package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"hxms_backend/internal/opportunities/domain"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const openCycleConstraint = "opportunities_open_cycle"

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	db   db.DBTX
}

// New creates an opportunity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, db: pool}
}

var (
	_ Repository = (*Repo)(nil)
	_ CycleStore = (*Repo)(nil)
)

const opportunityColumns = `o.id, o.customer_key, o.customer_id, o.customer_name, o.customer_phone,
	o.customer_gender, o.customer_age_range, o.customer_residence, o.current_vehicle,
	o.status, o.level, o.fail_reason, o.owner_id, o.owner_name, o.owner_department_id,
	o.store_id, o.region_id, o.brand_id, o.department_id,
	o.open_date, o.latest_visit_date, o.closed_date,
	o.channel_id, o.channel_category, o.channel_source, o.channel_level1, o.channel_level2,
	o.focus_model_id, o.focus_model_name, o.test_drive, o.price_negotiation,
	o.open_lead_id, o.last_lead_id, o.created_at, o.updated_at`

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var o domain.Opportunity
	var status string
	err := row.Scan(
		&o.ID, &o.CustomerKey, &o.CustomerID, &o.CustomerName, &o.CustomerPhone,
		&o.Profile.Gender, &o.Profile.AgeRange, &o.Profile.Residence, &o.Profile.CurrentVehicle,
		&status, &o.Level, &o.FailReason, &o.OwnerID, &o.OwnerName, &o.OwnerDepartmentID,
		&o.StoreID, &o.RegionID, &o.BrandID, &o.DepartmentID,
		&o.OpenDate, &o.LatestVisitDate, &o.ClosedDate,
		&o.ChannelID, &o.Channel.Category, &o.Channel.Source, &o.Channel.Level1, &o.Channel.Level2,
		&o.FocusModelID, &o.FocusModelName, &o.TestDrive, &o.PriceNegotiation,
		&o.OpenLeadID, &o.LastLeadID, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = domain.Status(status)
	return o, err
}

// WithinCycleLock takes a transaction-scoped advisory lock on the customer
// key and store before running fn.
func (r *Repo) WithinCycleLock(ctx context.Context, customerKey string, storeID int64, fn func(CycleStore) error) error {
	if r.pool == nil {
		return errors.New("cycle lock requires a connection pool")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin cycle tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockKey := customerKey + "@" + strconv.FormatInt(storeID, 10)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return fmt.Errorf("acquire cycle lock: %w", err)
	}

	if err := fn(&Repo{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cycle tx: %w", err)
	}
	return nil
}

// FindLatestOpenCycle returns the newest cycle for the customer at the store.
func (r *Repo) FindLatestOpenCycle(ctx context.Context, customerKey string, storeID int64) (*domain.Opportunity, error) {
	o, err := scanOpportunity(r.db.QueryRow(ctx, `
		SELECT `+opportunityColumns+`
		FROM opportunities o
		WHERE o.customer_key = $1 AND o.store_id = $2
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT 1`, customerKey, storeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest cycle: %w", err)
	}
	return &o, nil
}

// Create inserts a cycle. The partial unique index on open cycles turns a
// second open insert into ErrOpenCycleExists without aborting the transaction.
func (r *Repo) Create(ctx context.Context, opp domain.Opportunity) (domain.Opportunity, error) {
	created, err := scanOpportunity(r.db.QueryRow(ctx, `
		INSERT INTO opportunities AS o (
			customer_key, customer_id, customer_name, customer_phone,
			customer_gender, customer_age_range, customer_residence, current_vehicle,
			status, level, fail_reason, owner_id, owner_name, owner_department_id,
			store_id, region_id, brand_id, department_id,
			open_date, latest_visit_date, closed_date,
			channel_id, channel_category, channel_source, channel_level1, channel_level2,
			focus_model_id, focus_model_name, test_drive, price_negotiation,
			open_lead_id, last_lead_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
		)
		ON CONFLICT (customer_key, store_id) WHERE status = 'in_progress' DO NOTHING
		RETURNING `+opportunityColumns,
		opp.CustomerKey, opp.CustomerID, opp.CustomerName, opp.CustomerPhone,
		opp.Profile.Gender, opp.Profile.AgeRange, opp.Profile.Residence, opp.Profile.CurrentVehicle,
		string(opp.Status), opp.Level, opp.FailReason, opp.OwnerID, opp.OwnerName, opp.OwnerDepartmentID,
		opp.StoreID, opp.RegionID, opp.BrandID, opp.DepartmentID,
		opp.OpenDate, opp.LatestVisitDate, opp.ClosedDate,
		opp.ChannelID, opp.Channel.Category, opp.Channel.Source, opp.Channel.Level1, opp.Channel.Level2,
		opp.FocusModelID, opp.FocusModelName, opp.TestDrive, opp.PriceNegotiation,
		opp.OpenLeadID, opp.LastLeadID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Opportunity{}, ErrOpenCycleExists
	}
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("create opportunity: %w", err)
	}
	return created, nil
}

// Update writes every mutable column of opp.
func (r *Repo) Update(ctx context.Context, opp domain.Opportunity) (domain.Opportunity, error) {
	updated, err := scanOpportunity(r.db.QueryRow(ctx, `
		UPDATE opportunities AS o SET
			customer_id = $2,
			customer_name = $3,
			customer_phone = $4,
			customer_gender = $5,
			customer_age_range = $6,
			customer_residence = $7,
			current_vehicle = $8,
			status = $9,
			level = $10,
			fail_reason = $11,
			owner_id = $12,
			owner_name = $13,
			owner_department_id = $14,
			latest_visit_date = $15,
			closed_date = $16,
			focus_model_id = $17,
			focus_model_name = $18,
			test_drive = $19,
			price_negotiation = $20,
			last_lead_id = $21,
			updated_at = now()
		WHERE o.id = $1
		RETURNING `+opportunityColumns,
		opp.ID, opp.CustomerID, opp.CustomerName, opp.CustomerPhone,
		opp.Profile.Gender, opp.Profile.AgeRange, opp.Profile.Residence, opp.Profile.CurrentVehicle,
		string(opp.Status), opp.Level, opp.FailReason, opp.OwnerID, opp.OwnerName, opp.OwnerDepartmentID,
		opp.LatestVisitDate, opp.ClosedDate, opp.FocusModelID, opp.FocusModelName,
		opp.TestDrive, opp.PriceNegotiation, opp.LastLeadID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Opportunity{}, ErrNotFound
	}
	if db.IsUniqueViolation(err, openCycleConstraint) {
		return domain.Opportunity{}, ErrOpenCycleExists
	}
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("update opportunity: %w", err)
	}
	return updated, nil
}

// GetByID loads one opportunity.
func (r *Repo) GetByID(ctx context.Context, id int64) (domain.Opportunity, error) {
	o, err := scanOpportunity(r.db.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities o WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Opportunity{}, ErrNotFound
	}
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

// List returns one page of opportunities, most recently updated first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Opportunity, int, error) {
	filter := scope.NewFilter(params.Scope, Columns)
	filter.Search(params.Search, "o.customer_name", "o.customer_phone")
	if params.Status != nil {
		filter.Equals("o.status", string(*params.Status))
	}
	if params.Level != nil {
		filter.Equals("o.level", *params.Level)
	}
	if params.StoreID != nil {
		filter.Equals("o.store_id", *params.StoreID)
	}
	if params.DateFrom != nil {
		filter.Cond("o.open_date >= $%d", *params.DateFrom)
	}
	if params.DateTo != nil {
		filter.Cond("o.open_date <= $%d", *params.DateTo)
	}
	where := filter.Where()
	args := filter.Args()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM opportunities o `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count opportunities: %w", err)
	}

	next := filter.NextArg()
	query := fmt.Sprintf(`SELECT %s FROM opportunities o %s ORDER BY o.updated_at DESC, o.id DESC LIMIT $%d OFFSET $%d`,
		opportunityColumns, where, next, next+1)
	rows, err := r.db.Query(ctx, query, append(args, params.Page.PageSize, params.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Opportunity, 0)
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan opportunity: %w", err)
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate opportunities: %w", err)
	}
	return items, total, nil
}

// AppendActivity records a trail entry.
func (r *Repo) AppendActivity(ctx context.Context, a Activity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO opportunity_activity (opportunity_id, lead_id, action, meta)
		VALUES ($1, $2, $3, $4)`, a.OpportunityID, a.LeadID, a.Action, a.Meta)
	if err != nil {
		return fmt.Errorf("append opportunity activity: %w", err)
	}
	return nil
}

// ListActivity returns the trail of an opportunity, oldest first.
func (r *Repo) ListActivity(ctx context.Context, opportunityID int64) ([]Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT opportunity_id, lead_id, action, meta, created_at
		FROM opportunity_activity
		WHERE opportunity_id = $1
		ORDER BY created_at, id`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list opportunity activity: %w", err)
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.OpportunityID, &a.LeadID, &a.Action, &a.Meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan opportunity activity: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunity activity: %w", err)
	}
	return items, nil
}
