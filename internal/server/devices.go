package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Desire162007/Secure-Wipe/internal/platform"
)

type devicesResponse struct {
	Devices []platform.DeviceRecord `json:"devices"`
}

// handleDevices lists external devices.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.scanTimeout)
	defer cancel()

	devices, err := s.devices.ListExternalDevices(ctx)
	if err != nil {
		s.logger.Errorf("device scan failed: %v", err)
		http.Error(w, "device scan failed", http.StatusInternalServerError)
		return
	}
	if devices == nil {
		devices = []platform.DeviceRecord{}
	}
	writeJSON(w, http.StatusOK, devicesResponse{Devices: devices})
}

// handleDevice serves GET /api/device/{id}.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/device/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.scanTimeout)
	defer cancel()

	details, err := s.devices.GetDeviceDetails(ctx, id)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			http.Error(w, "device not found", http.StatusNotFound)
			return
		}
		s.logger.Errorf("device lookup %s failed: %v", id, err)
		http.Error(w, "device lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, details)
}
