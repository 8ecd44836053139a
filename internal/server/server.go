package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Desire162007/Secure-Wipe/internal/certificate"
	"github.com/Desire162007/Secure-Wipe/internal/logging"
	"github.com/Desire162007/Secure-Wipe/internal/platform"
	"github.com/Desire162007/Secure-Wipe/internal/system"
	"github.com/Desire162007/Secure-Wipe/internal/wipe"
)

// Devices is the part of the scanner the API needs.
type Devices interface {
	ListExternalDevices(ctx context.Context) ([]platform.DeviceRecord, error)
	GetDeviceDetails(ctx context.Context, id string) (*platform.DeviceDetails, error)
}

// HostReporter reports the host summary served on /api/system.
type HostReporter interface {
	Status(ctx context.Context) system.HostStatus
}

// Server represents the local HTTP API.
type Server struct {
	httpServer  *http.Server
	addr        string
	scanTimeout time.Duration
	logPath     string

	devices Devices
	wipes   *wipe.Manager
	issuer  *certificate.Issuer
	host    HostReporter
	logger  *logging.Logger
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	ScanTimeout  time.Duration
	// LogPath is the file served by /api/logs.
	LogPath string
}

// DefaultConfig returns a default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8000,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		ScanTimeout:  30 * time.Second,
	}
}

// New creates a new server instance
func New(
	cfg Config,
	devices Devices,
	wipes *wipe.Manager,
	issuer *certificate.Issuer,
	host HostReporter,
	logger *logging.Logger,
) *Server {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mux := http.NewServeMux()

	s := &Server{
		addr:        addr,
		scanTimeout: cfg.ScanTimeout,
		logPath:     cfg.LogPath,
		devices:     devices,
		wipes:       wipes,
		issuer:      issuer,
		host:        host,
		logger:      logger,
	}
	if s.scanTimeout <= 0 {
		s.scanTimeout = DefaultConfig().ScanTimeout
	}
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Addr() string {
	return s.addr
}

// Start starts the HTTP server and blocks until ctx is cancelled.
// Running wipe sessions are cancelled on shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Infof("server starting on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Infof("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if err := s.wipes.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnf("wipe sessions did not stop cleanly: %v", err)
		}
		s.logger.Infof("server shut down gracefully")
		return nil
	case err := <-errChan:
		return err
	}
}

// registerRoutes registers all API endpoints
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)

	// Devices
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/device/", s.handleDevice)

	// Wipe sessions
	mux.HandleFunc("/api/wipe/start", s.handleWipeStart)
	mux.HandleFunc("/api/wipe/", s.handleWipeOperations)
	mux.HandleFunc("/api/demo/fake-wipe", s.handleDemoWipe)

	// Certificates
	mux.HandleFunc("/api/certificate/", s.handleCertificate)

	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/api/system", s.handleSystem)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	lines, err := logging.Tail(s.logPath, 100)
	if err != nil {
		s.logger.Errorf("failed to read log file: %v", err)
		http.Error(w, "failed to read logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"logs": lines})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.scanTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, s.host.Status(ctx))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
