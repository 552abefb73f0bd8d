package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// broadcastMessage is the wire format published to device broadcast topics.
type broadcastMessage struct {
	DeviceID  string `json:"device_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// statusReport is the wire format devices publish to their status topics.
type statusReport struct {
	Status string `json:"status"`
}

// StatusHandler receives device status reports from the broker.
type StatusHandler func(ctx context.Context, tenantID, deviceID, status string) error

// DeviceGateway bridges the control plane and the broker: it fans broadcast
// content out to device topics and mirrors device status reports back into
// the caller's handler.
//
// It satisfies the control dispatcher's Broadcaster interface.
type DeviceGateway struct {
	client *Client
	topics Topics
}

// NewDeviceGateway creates a gateway over a connected client.
func NewDeviceGateway(client *Client) *DeviceGateway {
	return &DeviceGateway{client: client}
}

// PublishBroadcast publishes announcement content to a device's broadcast
// topic. Not retained: devices that are offline miss the announcement.
func (g *DeviceGateway) PublishBroadcast(_ context.Context, tenantID, deviceID, content string) error {
	msg := broadcastMessage{
		DeviceID:  deviceID,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding broadcast message: %w", err)
	}

	topic := g.topics.DeviceBroadcast(tenantID, deviceID)
	if err := g.client.Publish(topic, payload, byte(g.client.cfg.QoS), false); err != nil {
		return fmt.Errorf("publishing broadcast: %w", err)
	}

	return nil
}

// SubscribeStatus subscribes to all device status topics and invokes the
// handler for each report. Malformed payloads and unknown topics are
// rejected with an error (logged by the client, never fatal).
func (g *DeviceGateway) SubscribeStatus(handler StatusHandler) error {
	return g.client.Subscribe(g.topics.AllDeviceStatus(), byte(g.client.cfg.QoS),
		func(topic string, payload []byte) error {
			tenantID, deviceID, err := ParseDeviceTopic(topic)
			if err != nil {
				return err
			}

			var report statusReport
			if err := json.Unmarshal(payload, &report); err != nil {
				return fmt.Errorf("decoding status report: %w", err)
			}
			if report.Status == "" {
				return fmt.Errorf("status report on %s missing status field", topic)
			}

			return handler(context.Background(), tenantID, deviceID, report.Status)
		})
}
