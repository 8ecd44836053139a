package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Desire162007/Secure-Wipe/internal/certificate"
	"github.com/Desire162007/Secure-Wipe/internal/config"
	"github.com/Desire162007/Secure-Wipe/internal/logging"
	"github.com/Desire162007/Secure-Wipe/internal/platform"
	"github.com/Desire162007/Secure-Wipe/internal/server"
	"github.com/Desire162007/Secure-Wipe/internal/system"
	"github.com/Desire162007/Secure-Wipe/internal/wipe"
)

// Env is everything a command needs, built from one config file.
type Env struct {
	ConfigPath string
	Config     *config.Config
	Logger     *logging.Logger
	Scanner    *platform.Scanner
	Wipes      *wipe.Manager
	Issuer     *certificate.Issuer
	Monitor    *system.Monitor

	store *certificate.SQLiteStore
}

// Open loads configuration and wires the scanner, wipe manager and
// certificate store.
func Open(configPath string) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Logging.Path); cfg.Logging.Path != "" && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	logger, err := logging.New(cfg.Logging.Path, logging.ParseLevel(cfg.Logging.Level))
	if err != nil {
		return nil, err
	}

	store, err := certificate.OpenSQLite(cfg.Certificates.Database)
	if err != nil {
		logger.Close()
		return nil, err
	}
	issuer := certificate.NewIssuer(store, cfg.Certificates.Secret, logger)

	return &Env{
		ConfigPath: configPath,
		Config:     cfg,
		Logger:     logger,
		Scanner:    newScanner(cfg, logger),
		Wipes:      newWipeManager(cfg, logger, issuer),
		Issuer:     issuer,
		Monitor:    system.NewMonitor(),
		store:      store,
	}, nil
}

func newScanner(cfg *config.Config, logger *logging.Logger) *platform.Scanner {
	caps := platform.DetectCapabilities()
	if !cfg.NativeEnrichment() {
		caps.NativeProvider = false
	}
	return platform.NewScanner(caps,
		platform.WithPartitionSource(platform.NewHostPartitions(cfg.AllPartitions())),
		platform.WithWorkers(cfg.Scan.Workers),
		platform.WithLogger(logger),
	)
}

func newWipeManager(cfg *config.Config, logger *logging.Logger, issuer *certificate.Issuer) *wipe.Manager {
	return wipe.NewManager(logger,
		wipe.WithLimits(wipe.Limits{
			DefaultStandard: wipe.Standard(cfg.Wipe.DefaultStandard),
			DefaultPasses:   cfg.Wipe.DefaultPasses,
			MaxPasses:       cfg.Wipe.MaxPasses,
		}),
		wipe.WithSimulatorOptions(wipe.WithSpeedup(cfg.Wipe.Speedup)),
		wipe.OnComplete(issuer.Complete),
	)
}

// NewServer builds the HTTP API over this environment.
func (e *Env) NewServer() *server.Server {
	s := e.Config.Server
	return server.New(server.Config{
		Host:         s.Host,
		Port:         s.Port,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
		ScanTimeout:  s.ScanTimeout,
		LogPath:      e.Config.Logging.Path,
	}, e.Scanner, e.Wipes, e.Issuer, e.Monitor, e.Logger)
}

// Serve runs the HTTP API until ctx is cancelled.
func (e *Env) Serve(ctx context.Context) error {
	return e.NewServer().Start(ctx)
}

func (e *Env) Close() error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	errs = append(errs, e.Logger.Close())
	return errors.Join(errs...)
}
