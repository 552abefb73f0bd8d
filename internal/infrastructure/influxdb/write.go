package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordActivity writes a device activity point for a dispatched control
// command. Non-blocking; the point is batched and sent asynchronously.
//
// It satisfies the control dispatcher's ActivityRecorder interface.
func (c *Client) RecordActivity(tenantID, deviceID, action string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_activity",
		map[string]string{
			"tenant_id": tenantID,
			"device_id": deviceID,
			"action":    action,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordStatusChange writes a point for a device status transition reported
// over MQTT.
func (c *Client) RecordStatusChange(tenantID, deviceID, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"tenant_id": tenantID,
			"device_id": deviceID,
		},
		map[string]interface{}{
			"status": status,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
