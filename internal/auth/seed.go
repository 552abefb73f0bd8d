package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zuoweichuan/sounder-saas/internal/tenant"
)

// SeedOptions configures first-run bootstrap of a demo tenant and its
// admin account. Useful for local development and demo environments.
type SeedOptions struct {
	TenantName    string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// SeedDemo creates a demo tenant with one admin user if the database holds
// no tenants yet. Seeding is skipped (without error) when any tenant exists,
// so it is safe to run on every boot.
func SeedDemo(ctx context.Context, tenants tenant.Repository, users UserRepository, opts SeedOptions, logger *slog.Logger) error {
	count, err := tenants.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking tenant count: %w", err)
	}
	if count > 0 {
		logger.Debug("tenants exist, skipping demo seed")
		return nil
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return fmt.Errorf("%w: seed admin email and password are required", ErrInvalidUser)
	}

	tnt := &tenant.Tenant{
		Name:        opts.TenantName,
		CompanyName: opts.TenantName,
	}
	if tnt.Name == "" {
		tnt.Name = "Demo"
		tnt.CompanyName = "Demo Organisation"
	}
	if err := tenants.Create(ctx, tnt); err != nil {
		return fmt.Errorf("creating seed tenant: %w", err)
	}

	hash, err := HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &User{
		TenantID:     tnt.ID,
		Name:         opts.AdminName,
		Email:        opts.AdminEmail,
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
	if admin.Name == "" {
		admin.Name = "Administrator"
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("demo tenant seeded",
		"tenant_id", tnt.ID,
		"admin_email", admin.Email,
		"action_required", "change the seed password immediately",
	)

	return nil
}
