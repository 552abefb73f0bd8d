package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
// The tenant foreign key is omitted so tests can use synthetic tenant IDs.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			id            TEXT PRIMARY KEY,
			tenant_id     TEXT NOT NULL,
			name          TEXT NOT NULL,
			type          TEXT NOT NULL DEFAULT 'speaker',
			location      TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'online',
			x_angle       REAL NOT NULL DEFAULT 0,
			y_angle       REAL NOT NULL DEFAULT 0,
			last_activity TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("creates device with defaults", func(t *testing.T) {
		d := &Device{TenantID: "tnt-1", Name: "Hall Speaker", Location: "Main Hall"}

		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if d.ID == "" {
			t.Error("Create() should generate an ID")
		}

		got, err := repo.GetByID(ctx, "tnt-1", d.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Type != TypeSpeaker {
			t.Errorf("Type = %q, want default %q", got.Type, TypeSpeaker)
		}
		if got.Status != StatusOnline {
			t.Errorf("Status = %q, want default %q", got.Status, StatusOnline)
		}
		if got.XAngle != 0 || got.YAngle != 0 {
			t.Errorf("angles = (%v, %v), want (0, 0)", got.XAngle, got.YAngle)
		}
		if got.LastActivity.IsZero() {
			t.Error("LastActivity should be initialised")
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		err := repo.Create(ctx, &Device{TenantID: "tnt-1", Location: "Lobby"})
		if !errors.Is(err, ErrInvalidDevice) {
			t.Errorf("Create() error = %v, want ErrInvalidDevice", err)
		}
	})

	t.Run("rejects blank location", func(t *testing.T) {
		err := repo.Create(ctx, &Device{TenantID: "tnt-1", Name: "Cam"})
		if !errors.Is(err, ErrInvalidDevice) {
			t.Errorf("Create() error = %v, want ErrInvalidDevice", err)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		err := repo.Create(ctx, &Device{
			TenantID: "tnt-1", Name: "X", Location: "Y", Type: "toaster",
		})
		if !errors.Is(err, ErrInvalidDevice) {
			t.Errorf("Create() error = %v, want ErrInvalidDevice", err)
		}
	})
}

func TestSQLiteRepository_TenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	mine := &Device{TenantID: "tnt-1", Name: "My Speaker", Location: "Hall"}
	theirs := &Device{TenantID: "tnt-2", Name: "Their Camera", Location: "Lobby", Type: TypeCamera}
	for _, d := range []*Device{mine, theirs} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create(%s) error = %v", d.Name, err)
		}
	}

	t.Run("list returns only own devices", func(t *testing.T) {
		devices, err := repo.List(ctx, "tnt-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(devices) != 1 {
			t.Fatalf("List() returned %d devices, want 1", len(devices))
		}
		if devices[0].ID != mine.ID {
			t.Errorf("List() returned %q, want %q", devices[0].ID, mine.ID)
		}
	})

	t.Run("cross-tenant get yields not found", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, "tnt-1", theirs.ID); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("cross-tenant update yields not found", func(t *testing.T) {
		stolen := *theirs
		stolen.TenantID = "tnt-1"
		stolen.Name = "Hijacked"
		if err := repo.Update(ctx, &stolen); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Update() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("cross-tenant delete yields not found", func(t *testing.T) {
		if err := repo.Delete(ctx, "tnt-1", theirs.ID); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Delete() error = %v, want ErrDeviceNotFound", err)
		}

		// The device must still exist for its owner.
		if _, err := repo.GetByID(ctx, "tnt-2", theirs.ID); err != nil {
			t.Errorf("GetByID() after failed cross-tenant delete: %v", err)
		}
	})
}

func TestSQLiteRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := &Device{TenantID: "tnt-1", Name: "Speaker", Location: "Hall"}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	d.Name = "Stage Speaker"
	d.Status = StatusMaintenance
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "tnt-1", d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Stage Speaker" {
		t.Errorf("Name = %q, want %q", got.Name, "Stage Speaker")
	}
	if got.Status != StatusMaintenance {
		t.Errorf("Status = %q, want %q", got.Status, StatusMaintenance)
	}
	if got.IsOnline() {
		t.Error("IsOnline() = true for maintenance device")
	}
}

func TestSQLiteRepository_UpdateControlState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := &Device{TenantID: "tnt-1", Name: "Camera", Location: "Gate", Type: TypeCamera}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	d.XAngle = 45.5
	d.YAngle = -10
	if err := repo.UpdateControlState(ctx, d); err != nil {
		t.Fatalf("UpdateControlState() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "tnt-1", d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.XAngle != 45.5 || got.YAngle != -10 {
		t.Errorf("angles = (%v, %v), want (45.5, -10)", got.XAngle, got.YAngle)
	}
}
