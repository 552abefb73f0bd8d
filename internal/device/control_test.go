package device

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBroadcaster records published broadcasts and can be told to fail.
type fakeBroadcaster struct {
	mu      sync.Mutex
	calls   []string
	failErr error
}

func (f *fakeBroadcaster) PublishBroadcast(_ context.Context, tenantID, deviceID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tenantID+"/"+deviceID+": "+content)
	return f.failErr
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeRecorder) RecordActivity(_, _, action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeEvents) PublishDeviceEvent(_ string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func ptr(v float64) *float64 { return &v }

func newTestDispatcher(t *testing.T) (*Dispatcher, *SQLiteRepository) {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	return NewDispatcher(repo, testLogger()), repo
}

func createOnlineDevice(t *testing.T, repo *SQLiteRepository, tenantID string) *Device {
	t.Helper()
	d := &Device{TenantID: tenantID, Name: "Camera", Location: "Gate", Type: TypeCamera}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return d
}

func TestDispatcher_Control_AdjustAngle(t *testing.T) {
	disp, repo := newTestDispatcher(t)
	ctx := context.Background()
	dev := createOnlineDevice(t, repo, "tnt-1")

	t.Run("sets both angles", func(t *testing.T) {
		res, err := disp.Control(ctx, "tnt-1", dev.ID, Command{
			Action: ActionAdjustAngle, Params: Params{XAngle: ptr(30), YAngle: ptr(-15)},
		})
		if err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		if !res.Success {
			t.Error("Success = false")
		}
		if res.XAngle == nil || *res.XAngle != 30 {
			t.Errorf("XAngle = %v, want 30", res.XAngle)
		}
		if res.YAngle == nil || *res.YAngle != -15 {
			t.Errorf("YAngle = %v, want -15", res.YAngle)
		}
	})

	t.Run("partial adjust keeps other axis", func(t *testing.T) {
		res, err := disp.Control(ctx, "tnt-1", dev.ID, Command{
			Action: ActionAdjustAngle, Params: Params{XAngle: ptr(90)},
		})
		if err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		if *res.XAngle != 90 {
			t.Errorf("XAngle = %v, want 90", *res.XAngle)
		}
		if *res.YAngle != -15 {
			t.Errorf("YAngle = %v, want -15 (untouched)", *res.YAngle)
		}

		got, err := repo.GetByID(ctx, "tnt-1", dev.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.XAngle != 90 || got.YAngle != -15 {
			t.Errorf("persisted angles = (%v, %v), want (90, -15)", got.XAngle, got.YAngle)
		}
	})

	t.Run("no axes is a reported no-op", func(t *testing.T) {
		before, err := repo.GetByID(ctx, "tnt-1", dev.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}

		res, err := disp.Control(ctx, "tnt-1", dev.ID, Command{Action: ActionAdjustAngle})
		if err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		if !res.Success {
			t.Error("Success = false")
		}
		if *res.XAngle != before.XAngle || *res.YAngle != before.YAngle {
			t.Errorf("result angles = (%v, %v), want current (%v, %v)",
				*res.XAngle, *res.YAngle, before.XAngle, before.YAngle)
		}

		after, err := repo.GetByID(ctx, "tnt-1", dev.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if *after != *before {
			t.Errorf("device changed: %+v -> %+v", *before, *after)
		}
	})

	t.Run("does not count as activity", func(t *testing.T) {
		before, err := repo.GetByID(ctx, "tnt-1", dev.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}

		if _, err := disp.Control(ctx, "tnt-1", dev.ID, Command{
			Action: ActionAdjustAngle, Params: Params{XAngle: ptr(12)},
		}); err != nil {
			t.Fatalf("Control() error = %v", err)
		}

		after, err := repo.GetByID(ctx, "tnt-1", dev.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !after.LastActivity.Equal(before.LastActivity) {
			t.Errorf("LastActivity = %v, want %v (untouched by adjustAngle)",
				after.LastActivity, before.LastActivity)
		}
	})
}

func TestDispatcher_Control_Broadcast(t *testing.T) {
	disp, repo := newTestDispatcher(t)
	ctx := context.Background()
	dev := createOnlineDevice(t, repo, "tnt-1")

	broadcaster := &fakeBroadcaster{}
	recorder := &fakeRecorder{}
	events := &fakeEvents{}
	disp.WithBroadcaster(broadcaster).WithActivityRecorder(recorder).WithEventPublisher(events)

	res, err := disp.Control(ctx, "tnt-1", dev.ID, Command{
		Action: ActionBroadcast, Params: Params{Content: "doors closing in five minutes"},
	})
	if err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false")
	}
	if res.Content == nil || *res.Content != "doors closing in five minutes" {
		t.Errorf("Content = %v, want echo of request content", res.Content)
	}
	if res.XAngle != nil || res.YAngle != nil {
		t.Error("broadcast result should not carry angles")
	}

	if len(broadcaster.calls) != 1 || !strings.Contains(broadcaster.calls[0], "doors closing") {
		t.Errorf("broadcaster calls = %v, want one with content", broadcaster.calls)
	}
	if len(recorder.actions) != 1 || recorder.actions[0] != ActionBroadcast {
		t.Errorf("recorder actions = %v, want [broadcast]", recorder.actions)
	}
	if len(events.events) != 1 || events.events[0].DeviceID != dev.ID {
		t.Errorf("events = %v, want one for the device", events.events)
	}

	// LastActivity must have been bumped and persisted.
	got, err := repo.GetByID(ctx, "tnt-1", dev.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.LastActivity.Before(dev.LastActivity) {
		t.Error("LastActivity was not bumped")
	}
}

func TestDispatcher_Control_BroadcastPublishFailureIsNonFatal(t *testing.T) {
	disp, repo := newTestDispatcher(t)
	dev := createOnlineDevice(t, repo, "tnt-1")
	disp.WithBroadcaster(&fakeBroadcaster{failErr: errors.New("broker down")})

	res, err := disp.Control(context.Background(), "tnt-1", dev.ID, Command{
		Action: ActionBroadcast, Params: Params{Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Control() error = %v, want success despite publish failure", err)
	}
	if !res.Success {
		t.Error("Success = false")
	}
}

func TestDispatcher_Control_Rejections(t *testing.T) {
	disp, repo := newTestDispatcher(t)
	ctx := context.Background()

	t.Run("unknown device", func(t *testing.T) {
		_, err := disp.Control(ctx, "tnt-1", "dev-missing", Command{Action: ActionBroadcast})
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Control() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("cross-tenant device looks missing", func(t *testing.T) {
		theirs := createOnlineDevice(t, repo, "tnt-2")
		_, err := disp.Control(ctx, "tnt-1", theirs.ID, Command{Action: ActionBroadcast})
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Control() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("offline device names its status", func(t *testing.T) {
		dev := createOnlineDevice(t, repo, "tnt-1")
		dev.Status = StatusOffline
		if err := repo.Update(ctx, dev); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		_, err := disp.Control(ctx, "tnt-1", dev.ID, Command{
			Action: ActionAdjustAngle, Params: Params{XAngle: ptr(10)},
		})
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Fatalf("Control() error = %v, want ErrDeviceUnavailable", err)
		}
		if !strings.Contains(err.Error(), "offline") {
			t.Errorf("error %q should name the current status", err)
		}

		// No mutation on rejection.
		got, err := repo.GetByID(ctx, "tnt-1", dev.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.XAngle != 0 {
			t.Errorf("XAngle = %v, want 0 (unchanged)", got.XAngle)
		}
	})

	t.Run("maintenance device names its status", func(t *testing.T) {
		dev := createOnlineDevice(t, repo, "tnt-1")
		dev.Status = StatusMaintenance
		if err := repo.Update(ctx, dev); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		_, err := disp.Control(ctx, "tnt-1", dev.ID, Command{
			Action: ActionBroadcast, Params: Params{Content: "testing"},
		})
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Fatalf("Control() error = %v, want ErrDeviceUnavailable", err)
		}
		if !strings.Contains(err.Error(), "maintenance") {
			t.Errorf("error %q should name the current status", err)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		dev := createOnlineDevice(t, repo, "tnt-1")
		_, err := disp.Control(ctx, "tnt-1", dev.ID, Command{Action: "selfDestruct"})
		if !errors.Is(err, ErrUnsupportedAction) {
			t.Errorf("Control() error = %v, want ErrUnsupportedAction", err)
		}
	})
}
