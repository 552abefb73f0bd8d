// Package device provides tenant-scoped device records and the control
// dispatcher for sound and camera hardware.
//
// Every repository query filters by tenant as well as by device ID, so a
// device belonging to another tenant is indistinguishable from one that does
// not exist. Callers higher up the stack translate ErrDeviceNotFound into a
// plain 404 without revealing whether the ID was ever valid.
//
// The Dispatcher executes control commands (angle adjustment, content
// broadcast) against devices that are online, persisting the resulting
// control state and fanning side effects out to the MQTT broker, the
// activity recorder, and the event hub when those are wired.
package device
