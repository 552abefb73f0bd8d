// Package mqtt wraps paho.mqtt.golang for the Sounder control plane.
//
// The broker carries two message flows:
//
//   - Broadcast fan-out: the control dispatcher publishes announcement
//     content to sounder/broadcast/{tenant}/{device}. Physical devices
//     subscribe to their own topic.
//   - Status reports: devices publish operational state changes to
//     sounder/status/{tenant}/{device}, which the server mirrors into the
//     device repository.
//
// The client reconnects automatically with exponential backoff and restores
// subscriptions on reconnect. All methods are safe for concurrent use.
//
// MQTT is optional: when disabled in config the server runs without a
// broker and broadcast commands are persisted without fan-out.
package mqtt
