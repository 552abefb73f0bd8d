package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Control actions accepted by the dispatcher.
const (
	ActionAdjustAngle = "adjustAngle"
	ActionBroadcast   = "broadcast"
)

// Command is a control instruction for a single device. The wire format is
// {action, params: {...}}; which params apply depends on the action.
type Command struct {
	Action string `json:"action"`
	Params Params `json:"params"`
}

// Params carries the action-specific arguments of a Command.
//
// XAngle and YAngle are pointers so a partial adjustAngle can move one axis
// while leaving the other untouched.
type Params struct {
	XAngle  *float64 `json:"xAngle,omitempty"`
	YAngle  *float64 `json:"yAngle,omitempty"`
	Content string   `json:"content,omitempty"`
}

// Result reports the outcome of a dispatched command. Only fields relevant
// to the executed action are populated.
type Result struct {
	Success bool     `json:"success"`
	XAngle  *float64 `json:"xAngle,omitempty"`
	YAngle  *float64 `json:"yAngle,omitempty"`
	Content *string  `json:"content,omitempty"`
}

// Broadcaster fans broadcast content out to physical devices, typically
// over MQTT. Implementations must be safe for concurrent use.
type Broadcaster interface {
	PublishBroadcast(ctx context.Context, tenantID, deviceID, content string) error
}

// ActivityRecorder receives a point per dispatched command for time-series
// history. Implementations must not block the caller.
type ActivityRecorder interface {
	RecordActivity(tenantID, deviceID, action string)
}

// EventPublisher pushes device events to connected tenant clients.
type EventPublisher interface {
	PublishDeviceEvent(tenantID string, event Event)
}

// Event is a device-level notification delivered to event stream clients.
type Event struct {
	Type     string    `json:"type"`
	DeviceID string    `json:"device_id"`
	Action   string    `json:"action,omitempty"`
	At       time.Time `json:"at"`
}

// Dispatcher executes control commands against tenant devices.
//
// Side-effect hooks (broadcaster, activity, events) are optional; a nil hook
// is skipped. Hook failures are logged and never fail the command: the
// persisted control state is the source of truth, the hooks are best-effort
// fan-out.
type Dispatcher struct {
	repo        Repository
	broadcaster Broadcaster
	activity    ActivityRecorder
	events      EventPublisher
	logger      *slog.Logger
}

// NewDispatcher creates a command dispatcher backed by the given repository.
func NewDispatcher(repo Repository, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, logger: logger}
}

// WithBroadcaster attaches a broadcast transport. Returns the dispatcher
// for chaining during wiring.
func (d *Dispatcher) WithBroadcaster(b Broadcaster) *Dispatcher {
	d.broadcaster = b
	return d
}

// WithActivityRecorder attaches a command history recorder.
func (d *Dispatcher) WithActivityRecorder(a ActivityRecorder) *Dispatcher {
	d.activity = a
	return d
}

// WithEventPublisher attaches an event stream publisher.
func (d *Dispatcher) WithEventPublisher(e EventPublisher) *Dispatcher {
	d.events = e
	return d
}

// Control dispatches a command to a device within a tenant.
//
// The device must exist under the tenant and be online; otherwise
// ErrDeviceNotFound or ErrDeviceUnavailable is returned and nothing is
// mutated. Mutating actions persist the updated control state before any
// side effects run. Concurrent commands against the same device are
// last-write-wins.
func (d *Dispatcher) Control(ctx context.Context, tenantID, deviceID string, cmd Command) (*Result, error) {
	dev, err := d.repo.GetByID(ctx, tenantID, deviceID)
	if err != nil {
		return nil, err
	}

	if !dev.IsOnline() {
		return nil, fmt.Errorf("%w: device is %s", ErrDeviceUnavailable, dev.Status)
	}

	switch cmd.Action {
	case ActionAdjustAngle:
		return d.adjustAngle(ctx, dev, cmd)
	case ActionBroadcast:
		return d.broadcast(ctx, dev, cmd)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, cmd.Action)
	}
}

// adjustAngle overwrites the provided axes and persists the new orientation.
// LastActivity is not touched; only broadcast counts as device activity.
// Angles are not range-checked server-side; hardware clamps them.
func (d *Dispatcher) adjustAngle(ctx context.Context, dev *Device, cmd Command) (*Result, error) {
	changed := false
	if cmd.Params.XAngle != nil {
		dev.XAngle = *cmd.Params.XAngle
		changed = true
	}
	if cmd.Params.YAngle != nil {
		dev.YAngle = *cmd.Params.YAngle
		changed = true
	}

	// With neither axis provided the command is a no-op: report the current
	// orientation without writing anything.
	if changed {
		if err := d.repo.UpdateControlState(ctx, dev); err != nil {
			return nil, fmt.Errorf("persisting angle adjustment: %w", err)
		}
	}

	d.fanOut(dev, ActionAdjustAngle)

	x, y := dev.XAngle, dev.YAngle
	return &Result{Success: true, XAngle: &x, YAngle: &y}, nil
}

// broadcast bumps the device's activity timestamp and pushes the content to
// the broadcast transport. Angles are untouched.
func (d *Dispatcher) broadcast(ctx context.Context, dev *Device, cmd Command) (*Result, error) {
	dev.LastActivity = time.Now().UTC().Truncate(time.Second)

	if err := d.repo.UpdateControlState(ctx, dev); err != nil {
		return nil, fmt.Errorf("persisting broadcast activity: %w", err)
	}

	if d.broadcaster != nil {
		if err := d.broadcaster.PublishBroadcast(ctx, dev.TenantID, dev.ID, cmd.Params.Content); err != nil {
			d.logger.Warn("broadcast publish failed",
				"device_id", dev.ID,
				"tenant_id", dev.TenantID,
				"error", err,
			)
		}
	}

	d.fanOut(dev, ActionBroadcast)

	content := cmd.Params.Content
	return &Result{Success: true, Content: &content}, nil
}

// fanOut delivers post-command side effects to the optional hooks.
func (d *Dispatcher) fanOut(dev *Device, action string) {
	if d.activity != nil {
		d.activity.RecordActivity(dev.TenantID, dev.ID, action)
	}
	if d.events != nil {
		d.events.PublishDeviceEvent(dev.TenantID, Event{
			Type:     "device.control",
			DeviceID: dev.ID,
			Action:   action,
			At:       time.Now().UTC().Truncate(time.Second),
		})
	}
}
