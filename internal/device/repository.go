package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device persistence operations.
//
// Every read and write is scoped to a tenant: a device ID from another
// tenant behaves exactly like a missing ID and yields ErrDeviceNotFound.
type Repository interface {
	// List retrieves all devices owned by a tenant, ordered by name.
	List(ctx context.Context, tenantID string) ([]Device, error)

	// GetByID retrieves a device by ID within a tenant.
	// Returns ErrDeviceNotFound if absent or owned by another tenant.
	GetByID(ctx context.Context, tenantID, id string) (*Device, error)

	// Create inserts a new device. The ID is generated if empty.
	Create(ctx context.Context, device *Device) error

	// Update modifies a device's descriptive fields (name, type, location,
	// status). Returns ErrDeviceNotFound if absent or cross-tenant.
	Update(ctx context.Context, device *Device) error

	// UpdateControlState persists the control fields (angles, last
	// activity) after a dispatched command.
	UpdateControlState(ctx context.Context, device *Device) error

	// Delete removes a device within a tenant.
	Delete(ctx context.Context, tenantID, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, tenant_id, name, type, location, status,
	x_angle, y_angle, last_activity, created_at, updated_at`

// List retrieves all devices owned by a tenant, ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, tenantID string) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE tenant_id = ? ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	devices := make([]Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}

	return devices, nil
}

// GetByID retrieves a device by ID within a tenant.
func (r *SQLiteRepository) GetByID(ctx context.Context, tenantID, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	)

	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return d, nil
}

// Create inserts a new device with defaults applied: type speaker, status
// online, angles zeroed, last activity set to creation time.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	if device.TenantID == "" {
		return fmt.Errorf("%w: tenant reference is required", ErrInvalidDevice)
	}
	if device.Name == "" || device.Location == "" {
		return fmt.Errorf("%w: name and location are required", ErrInvalidDevice)
	}
	if device.Type == "" {
		device.Type = TypeSpeaker
	}
	if !IsValidType(device.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, device.Type)
	}
	if device.Status == "" {
		device.Status = StatusOnline
	}
	if !IsValidStatus(device.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidDevice, device.Status)
	}
	if device.ID == "" {
		device.ID = "dev-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Truncate(time.Second)
	device.LastActivity = now
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, tenant_id, name, type, location, status,
			x_angle, y_angle, last_activity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID, device.TenantID, device.Name, string(device.Type),
		device.Location, string(device.Status),
		device.XAngle, device.YAngle,
		now.Format(time.RFC3339), now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating device: %w", err)
	}

	return nil
}

// Update modifies a device's descriptive fields.
func (r *SQLiteRepository) Update(ctx context.Context, device *Device) error {
	if device.Name == "" || device.Location == "" {
		return fmt.Errorf("%w: name and location are required", ErrInvalidDevice)
	}
	if !IsValidType(device.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, device.Type)
	}
	if !IsValidStatus(device.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidDevice, device.Status)
	}

	now := time.Now().UTC().Truncate(time.Second)
	device.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET name = ?, type = ?, location = ?, status = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		device.Name, string(device.Type), device.Location, string(device.Status),
		now.Format(time.RFC3339), device.ID, device.TenantID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// UpdateControlState persists the control fields after a dispatched command.
// Last write wins: concurrent commands against the same device are not
// serialised beyond SQLite's own write lock.
func (r *SQLiteRepository) UpdateControlState(ctx context.Context, device *Device) error {
	now := time.Now().UTC().Truncate(time.Second)
	device.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET x_angle = ?, y_angle = ?, last_activity = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		device.XAngle, device.YAngle,
		device.LastActivity.UTC().Format(time.RFC3339), now.Format(time.RFC3339),
		device.ID, device.TenantID,
	)
	if err != nil {
		return fmt.Errorf("updating device control state: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device within a tenant.
func (r *SQLiteRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM devices WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanner abstracts over *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice reads one device row.
func scanDevice(s scanner) (*Device, error) {
	var d Device
	var typ, status, lastActivity, createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.TenantID, &d.Name, &typ, &d.Location, &status,
		&d.XAngle, &d.YAngle, &lastActivity, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.Type = Type(typ)
	d.Status = Status(status)
	d.LastActivity, _ = time.Parse(time.RFC3339, lastActivity) //nolint:errcheck // format is controlled
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)       //nolint:errcheck // format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)       //nolint:errcheck // format is controlled

	return &d, nil
}
