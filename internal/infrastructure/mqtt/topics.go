package mqtt

import (
	"fmt"
	"strings"
)

// topicPrefix is the root of all Sounder MQTT topics.
const topicPrefix = "sounder"

// Topics builds Sounder topic strings. The zero value is ready to use.
//
// Scheme:
//
//	sounder/system/status                       server online/offline (retained)
//	sounder/broadcast/{tenant}/{device}         broadcast content to a device
//	sounder/status/{tenant}/{device}            device status reports
type Topics struct{}

// SystemStatus returns the retained server status topic.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// DeviceBroadcast returns the broadcast topic for one device.
func (Topics) DeviceBroadcast(tenantID, deviceID string) string {
	return fmt.Sprintf("%s/broadcast/%s/%s", topicPrefix, tenantID, deviceID)
}

// DeviceStatus returns the status report topic for one device.
func (Topics) DeviceStatus(tenantID, deviceID string) string {
	return fmt.Sprintf("%s/status/%s/%s", topicPrefix, tenantID, deviceID)
}

// AllDeviceStatus returns the wildcard pattern matching every tenant's
// device status topics.
func (Topics) AllDeviceStatus() string {
	return topicPrefix + "/status/+/+"
}

// ParseDeviceTopic extracts the tenant and device IDs from a broadcast or
// status topic. Returns ErrInvalidTopic if the topic does not match the
// sounder/{channel}/{tenant}/{device} shape.
func ParseDeviceTopic(topic string) (tenantID, deviceID string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != topicPrefix || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], nil
}
