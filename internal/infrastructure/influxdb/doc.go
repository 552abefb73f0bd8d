// Package influxdb provides the optional device activity history writer.
//
// Every dispatched control command and device status transition is recorded
// as a time-series point tagged by tenant and device. Writes are
// non-blocking and batched; a lost point never fails a control request.
//
// The integration is disabled by default. When disabled, Connect returns
// ErrDisabled and the server runs without activity history.
package influxdb
