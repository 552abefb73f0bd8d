package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zuoweichuan/sounder-saas/internal/device"
)

// handleListDevices returns all devices owned by the caller's tenant.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	devices, err := s.devices.List(r.Context(), id.Tenant.ID)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err, "tenant_id", id.Tenant.ID)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// createDeviceRequest is the request body for POST /devices.
type createDeviceRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// handleCreateDevice registers a new device under the caller's tenant.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev := &device.Device{
		TenantID: id.Tenant.ID,
		Name:     req.Name,
		Type:     device.Type(req.Type),
		Location: req.Location,
	}

	if err := s.devices.Create(r.Context(), dev); err != nil {
		if errors.Is(err, device.ErrInvalidDevice) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("creating device failed", "error", err, "tenant_id", id.Tenant.ID)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleGetDevice returns a single device owned by the caller's tenant.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	dev, err := s.devices.GetByID(r.Context(), id.Tenant.ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device failed", "error", err, "tenant_id", id.Tenant.ID)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// updateDeviceRequest is the request body for PUT /devices/{id}.
// Absent fields keep their stored values.
type updateDeviceRequest struct {
	Name     *string `json:"name,omitempty"`
	Type     *string `json:"type,omitempty"`
	Location *string `json:"location,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// handleUpdateDevice updates a device's descriptive fields.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.devices.GetByID(r.Context(), id.Tenant.ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device for update failed", "error", err, "tenant_id", id.Tenant.ID)
		writeInternalError(w, "internal server error")
		return
	}

	if req.Name != nil {
		dev.Name = *req.Name
	}
	if req.Type != nil {
		dev.Type = device.Type(*req.Type)
	}
	if req.Location != nil {
		dev.Location = *req.Location
	}
	if req.Status != nil {
		dev.Status = device.Status(*req.Status)
	}

	if err := s.devices.Update(r.Context(), dev); err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidDevice):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			s.logger.Error("updating device failed", "error", err, "tenant_id", id.Tenant.ID)
			writeInternalError(w, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a device from the caller's tenant.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	if err := s.devices.Delete(r.Context(), id.Tenant.ID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("deleting device failed", "error", err, "tenant_id", id.Tenant.ID)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleControlDevice dispatches a control command to a device.
//
// Failures map to client errors without leaking other tenants' data: a
// cross-tenant device ID is a plain 404, an offline device is a 400 naming
// its current status.
func (s *Server) handleControlDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var cmd device.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if cmd.Action == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "action is required")
		return
	}

	result, err := s.dispatcher.Control(r.Context(), id.Tenant.ID, chi.URLParam(r, "id"), cmd)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, device.ErrDeviceUnavailable):
			writeBadRequest(w, err.Error())
		case errors.Is(err, device.ErrUnsupportedAction):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("control dispatch failed",
				"error", err,
				"tenant_id", id.Tenant.ID,
				"device_id", chi.URLParam(r, "id"),
			)
			writeInternalError(w, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
