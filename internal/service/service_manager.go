package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kardianos/service"

	"github.com/Desire162007/Secure-Wipe/internal/config"
	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// Runner is the workload hosted by the service. It must return when ctx ends.
type Runner func(ctx context.Context) error

type ServiceManager struct {
	service service.Service
	name    string
}

// program adapts a Runner to kardianos/service.
type program struct {
	run    Runner
	logger *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func newProgram(run Runner, logger *logging.Logger) *program {
	return &program{run: run, logger: logger}
}

func (p *program) Start(s service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("service already running")
	}

	p.logger.Infof("starting securewipe service...")
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func(done chan<- error) {
		err := p.run(ctx)
		if err != nil {
			p.logger.Errorf("service workload exited: %v", err)
		}
		done <- err
	}(p.done)
	return nil
}

func (p *program) Stop(s service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}

	p.logger.Infof("stopping securewipe service...")
	cancel()
	select {
	case err := <-done:
		return err
	case <-time.After(15 * time.Second):
		return errors.New("timed out waiting for service to stop")
	}
}

// NewServiceManager registers the service described by cfg. The installed
// service re-invokes this executable with "service run".
func NewServiceManager(cfg config.Service, configPath string, run Runner, logger *logging.Logger) (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"service", "run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	svcConfig := &service.Config{
		Name:        cfg.Name,
		DisplayName: cfg.DisplayName,
		Description: cfg.Description,
		Executable:  execPath,
		Arguments:   args,
		Option: service.KeyValue{
			"RunAtLoad": true,
			"KeepAlive": true,
		},
	}

	svc, err := service.New(newProgram(run, logger), svcConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return &ServiceManager{service: svc, name: cfg.Name}, nil
}

func (sm *ServiceManager) Install() error {
	return sm.service.Install()
}

func (sm *ServiceManager) Uninstall() error {
	return sm.service.Uninstall()
}

func (sm *ServiceManager) Start() error {
	return sm.service.Start()
}

func (sm *ServiceManager) Stop() error {
	return sm.service.Stop()
}

func (sm *ServiceManager) Restart() error {
	return sm.service.Restart()
}

func (sm *ServiceManager) Status() (string, error) {
	status, err := sm.service.Status()
	if err != nil {
		return "Unknown", err
	}
	return statusText(status), nil
}

// Run blocks under the service manager, or in the foreground when started
// interactively.
func (sm *ServiceManager) Run() error {
	return sm.service.Run()
}

// ConfigPath returns the platform-specific location of the service definition.
func (sm *ServiceManager) ConfigPath() string {
	return serviceConfigPath(service.Platform(), sm.name)
}

func statusText(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	case service.StatusUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(status))
	}
}

func serviceConfigPath(platform, name string) string {
	switch platform {
	case "linux-systemd":
		return "/etc/systemd/system/" + name + ".service"
	case "darwin-launchd":
		return "/Library/LaunchDaemons/" + name + ".plist"
	case "windows-service":
		return `Registry: HKEY_LOCAL_MACHINE\SYSTEM\CurrentControlSet\Services\` + name
	default:
		return "Unknown platform"
	}
}
