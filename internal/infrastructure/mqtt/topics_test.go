package mqtt

import (
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	if got := topics.SystemStatus(); got != "sounder/system/status" {
		t.Errorf("SystemStatus() = %q", got)
	}
	if got := topics.DeviceBroadcast("tnt-1", "dev-2"); got != "sounder/broadcast/tnt-1/dev-2" {
		t.Errorf("DeviceBroadcast() = %q", got)
	}
	if got := topics.DeviceStatus("tnt-1", "dev-2"); got != "sounder/status/tnt-1/dev-2" {
		t.Errorf("DeviceStatus() = %q", got)
	}
	if got := topics.AllDeviceStatus(); got != "sounder/status/+/+" {
		t.Errorf("AllDeviceStatus() = %q", got)
	}
}

func TestParseDeviceTopic(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		wantTenant string
		wantDevice string
		wantErr    bool
	}{
		{
			name:       "status topic",
			topic:      "sounder/status/tnt-1/dev-2",
			wantTenant: "tnt-1",
			wantDevice: "dev-2",
		},
		{
			name:       "broadcast topic",
			topic:      "sounder/broadcast/tnt-abc/dev-xyz",
			wantTenant: "tnt-abc",
			wantDevice: "dev-xyz",
		},
		{
			name:    "wrong prefix",
			topic:   "other/status/tnt-1/dev-2",
			wantErr: true,
		},
		{
			name:    "too few segments",
			topic:   "sounder/status/tnt-1",
			wantErr: true,
		},
		{
			name:    "empty device segment",
			topic:   "sounder/status/tnt-1/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenantID, deviceID, err := ParseDeviceTopic(tt.topic)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopic) {
					t.Errorf("ParseDeviceTopic() error = %v, want ErrInvalidTopic", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseDeviceTopic() error = %v", err)
			}
			if tenantID != tt.wantTenant {
				t.Errorf("tenantID = %q, want %q", tenantID, tt.wantTenant)
			}
			if deviceID != tt.wantDevice {
				t.Errorf("deviceID = %q, want %q", deviceID, tt.wantDevice)
			}
		})
	}
}
