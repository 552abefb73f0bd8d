package device

import (
	"errors"
	"time"
)

// Type categorises the physical hardware behind a device record.
type Type string

const (
	TypeSpeaker    Type = "speaker"
	TypeMicrophone Type = "microphone"
	TypeCamera     Type = "camera"
	TypeSensor     Type = "sensor"
)

// IsValidType returns true if the type is a recognised device type.
func IsValidType(t Type) bool {
	switch t {
	case TypeSpeaker, TypeMicrophone, TypeCamera, TypeSensor:
		return true
	}
	return false
}

// Status represents a device's operational state. Only online devices
// accept control commands.
type Status string

const (
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusMaintenance Status = "maintenance"
)

// IsValidStatus returns true if the status is a recognised device status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusOffline, StatusMaintenance:
		return true
	}
	return false
}

// Device represents a controllable unit owned by exactly one tenant.
//
// XAngle and YAngle hold the last commanded orientation in degrees. The
// server does not range-check angles; hardware clamps out-of-range values
// and the client UI enforces its own limits.
type Device struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Type         Type      `json:"type"`
	Location     string    `json:"location"`
	Status       Status    `json:"status"`
	XAngle       float64   `json:"x_angle"`
	YAngle       float64   `json:"y_angle"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsOnline reports whether the device currently accepts control commands.
func (d *Device) IsOnline() bool {
	return d.Status == StatusOnline
}

// Sentinel errors for device operations.
var (
	ErrDeviceNotFound    = errors.New("device: not found")
	ErrInvalidDevice     = errors.New("device: invalid device")
	ErrDeviceUnavailable = errors.New("device: unavailable")
	ErrUnsupportedAction = errors.New("device: unsupported action")
)
