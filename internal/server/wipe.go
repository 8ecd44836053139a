package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Desire162007/Secure-Wipe/internal/wipe"
)

const demoDeviceID = "demo_device"

func (s *Server) handleWipeStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req wipe.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.startWipe(w, req)
}

// handleDemoWipe starts a dry-run DoD simulation on a placeholder device.
func (s *Server) handleDemoWipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.startWipe(w, wipe.Request{
		DeviceID: demoDeviceID,
		Mode:     wipe.ModeDryRun,
		Passes:   3,
		Standard: wipe.StandardDoD,
	})
}

func (s *Server) startWipe(w http.ResponseWriter, req wipe.Request) {
	res, err := s.wipes.Start(req)
	if err != nil {
		switch {
		case errors.Is(err, wipe.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, wipe.ErrRealWipeDisabled):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			s.logger.Errorf("failed to start wipe: %v", err)
			http.Error(w, "failed to start wipe", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleWipeOperations dispatches /api/wipe/{id} and /api/wipe/{id}/cancel.
func (s *Server) handleWipeOperations(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/wipe/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "invalid wipe id", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.wipeProgress(w, id)
	case action == "cancel" && r.Method == http.MethodPost:
		s.wipeCancel(w, id)
	case action == "" || action == "cancel":
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) wipeProgress(w http.ResponseWriter, id string) {
	p, err := s.wipes.Progress(id)
	if err != nil {
		if errors.Is(err, wipe.ErrSessionNotFound) {
			http.Error(w, "wipe session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) wipeCancel(w http.ResponseWriter, id string) {
	if err := s.wipes.Cancel(id); err != nil {
		if errors.Is(err, wipe.ErrSessionNotFound) {
			http.Error(w, "wipe session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to cancel wipe", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"wipe_id": id, "status": "cancelling"})
}
