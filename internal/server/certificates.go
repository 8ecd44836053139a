package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Desire162007/Secure-Wipe/internal/certificate"
)

type verifyResponse struct {
	CertID string `json:"cert_id"`
	Valid  bool   `json:"valid"`
}

// handleCertificate serves GET /api/certificate/{id} and
// GET /api/certificate/{id}/verify. ?format=text returns the printable form.
func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/certificate/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || (action != "" && action != "verify") {
		http.NotFound(w, r)
		return
	}

	cert, err := s.issuer.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, certificate.ErrNotFound) {
			http.Error(w, "certificate not found", http.StatusNotFound)
			return
		}
		s.logger.Errorf("certificate lookup %s failed: %v", id, err)
		http.Error(w, "failed to load certificate", http.StatusInternalServerError)
		return
	}

	valid := s.issuer.Verify(cert)
	if action == "verify" {
		writeJSON(w, http.StatusOK, verifyResponse{CertID: cert.ID, Valid: valid})
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="certificate_`+cert.ID+`.txt"`)
		if err := cert.Render(w, valid); err != nil {
			s.logger.Errorf("failed to render certificate %s: %v", cert.ID, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, cert)
}
