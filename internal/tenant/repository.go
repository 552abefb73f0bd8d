package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for tenant persistence.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	UpdatePlan(ctx context.Context, id string, plan Plan) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed tenant repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new tenant. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, tenant *Tenant) error {
	if tenant.Name == "" || tenant.CompanyName == "" {
		return fmt.Errorf("%w: name and company name are required", ErrInvalidTenant)
	}
	if tenant.ID == "" {
		tenant.ID = "tnt-" + uuid.NewString()[:8]
	}
	if tenant.Plan == "" {
		tenant.Plan = PlanBasic
	}
	if tenant.Status == "" {
		tenant.Status = StatusActive
	}
	if !IsValidPlan(tenant.Plan) {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, tenant.Plan)
	}
	if !IsValidStatus(tenant.Status) {
		return fmt.Errorf("%w: invalid status %s", ErrInvalidTenant, tenant.Status)
	}

	now := time.Now().UTC().Truncate(time.Second)
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, company_name, subscription_plan, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID, tenant.Name, tenant.CompanyName, string(tenant.Plan), string(tenant.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, company_name, subscription_plan, status, created_at, updated_at
		 FROM tenants WHERE id = ?`, id)

	var t Tenant
	var plan, status, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Name, &t.CompanyName, &plan, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("querying tenant: %w", err)
	}

	t.Plan = Plan(plan)
	t.Status = Status(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}

// Update modifies a tenant's mutable fields (name, company_name, status).
func (r *SQLiteRepository) Update(ctx context.Context, tenant *Tenant) error {
	if !IsValidStatus(tenant.Status) {
		return fmt.Errorf("%w: invalid status %s", ErrInvalidTenant, tenant.Status)
	}

	now := time.Now().UTC().Truncate(time.Second)
	tenant.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, company_name = ?, status = ?, updated_at = ? WHERE id = ?`,
		tenant.Name, tenant.CompanyName, string(tenant.Status), now.Format(time.RFC3339), tenant.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tenant: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// UpdatePlan changes a tenant's subscription plan.
func (r *SQLiteRepository) UpdatePlan(ctx context.Context, id string, plan Plan) error {
	if !IsValidPlan(plan) {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, plan)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET subscription_plan = ?, updated_at = ? WHERE id = ?`,
		string(plan), now, id,
	)
	if err != nil {
		return fmt.Errorf("updating subscription plan: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// Count returns the total number of tenants.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting tenants: %w", err)
	}
	return count, nil
}
