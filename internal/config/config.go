package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "SECUREWIPE_CONFIG"
	EnvLogLevel   = "SECUREWIPE_LOG_LEVEL"
)

type Config struct {
	Server       Server       `yaml:"server"`
	Scan         Scan         `yaml:"scan"`
	Wipe         Wipe         `yaml:"wipe"`
	Certificates Certificates `yaml:"certificates"`
	Logging      Logging      `yaml:"logging"`
	Service      Service      `yaml:"service"`
}

type Server struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// ScanTimeout bounds a single device scan triggered by a request
	ScanTimeout time.Duration `yaml:"scan_timeout"`
}

type Scan struct {
	Workers       int   `yaml:"workers"`
	AllPartitions *bool `yaml:"all_partitions,omitempty"`
	// NativeEnrichment=false forces basic identification even when a native provider exists
	NativeEnrichment *bool `yaml:"native_enrichment,omitempty"`
}

type Wipe struct {
	DefaultStandard string  `yaml:"default_standard"`
	DefaultPasses   int     `yaml:"default_passes"`
	MaxPasses       int     `yaml:"max_passes"`
	Speedup         float64 `yaml:"speedup"`
}

type Certificates struct {
	Database string `yaml:"database"`
	Secret   string `yaml:"secret"`
}

type Logging struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type Service struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// Default returns baseline settings used when no config file exists.
func Default() Config {
	return Config{
		Server: Server{
			Host:         "127.0.0.1",
			Port:         8000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
			ScanTimeout:  30 * time.Second,
		},
		Scan: Scan{
			Workers:          4,
			AllPartitions:    boolPtr(true),
			NativeEnrichment: boolPtr(true),
		},
		Wipe: Wipe{
			DefaultStandard: "dod",
			DefaultPasses:   3,
			MaxPasses:       35,
			Speedup:         1,
		},
		Certificates: Certificates{
			Database: "certificates/certificates.db",
			Secret:   "securewipe-local",
		},
		Logging: Logging{
			Level: "info",
			Path:  "logs/securewipe.log",
		},
		Service: Service{
			Name:        "securewipe",
			DisplayName: "SecureWipe Device Service",
			Description: "Catalogues removable storage and simulates sanitization runs",
		},
	}
}

// Load reads the config at path. An empty path searches the default locations;
// when nothing is found the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		candidates := []string{
			"/etc/securewipe/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/securewipe/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var fromFile Config
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = fromFile
		cfg.applyDefaults()
	}

	if lvl := strings.TrimSpace(os.Getenv(EnvLogLevel)); lvl != "" {
		cfg.Logging.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued fields from Default.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if c.Server.ScanTimeout == 0 {
		c.Server.ScanTimeout = d.Server.ScanTimeout
	}

	if c.Scan.Workers == 0 {
		c.Scan.Workers = d.Scan.Workers
	}
	if c.Scan.AllPartitions == nil {
		c.Scan.AllPartitions = d.Scan.AllPartitions
	}
	if c.Scan.NativeEnrichment == nil {
		c.Scan.NativeEnrichment = d.Scan.NativeEnrichment
	}

	if c.Wipe.DefaultStandard == "" {
		c.Wipe.DefaultStandard = d.Wipe.DefaultStandard
	}
	if c.Wipe.DefaultPasses == 0 {
		c.Wipe.DefaultPasses = d.Wipe.DefaultPasses
	}
	if c.Wipe.MaxPasses == 0 {
		c.Wipe.MaxPasses = d.Wipe.MaxPasses
	}
	if c.Wipe.Speedup == 0 {
		c.Wipe.Speedup = d.Wipe.Speedup
	}

	if c.Certificates.Database == "" {
		c.Certificates.Database = d.Certificates.Database
	}
	if c.Certificates.Secret == "" {
		c.Certificates.Secret = d.Certificates.Secret
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}

	if c.Service.Name == "" {
		c.Service.Name = d.Service.Name
	}
	if c.Service.DisplayName == "" {
		c.Service.DisplayName = d.Service.DisplayName
	}
	if c.Service.Description == "" {
		c.Service.Description = d.Service.Description
	}
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Wipe.MaxPasses < 1 {
		return fmt.Errorf("wipe.max_passes must be positive, got %d", c.Wipe.MaxPasses)
	}
	if c.Wipe.DefaultPasses < 1 || c.Wipe.DefaultPasses > c.Wipe.MaxPasses {
		return fmt.Errorf("wipe.default_passes %d outside 1..%d", c.Wipe.DefaultPasses, c.Wipe.MaxPasses)
	}
	if c.Wipe.Speedup < 0 {
		return fmt.Errorf("wipe.speedup must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AllPartitions reports whether pseudo and unmounted entries are enumerated.
func (c *Config) AllPartitions() bool {
	return c.Scan.AllPartitions == nil || *c.Scan.AllPartitions
}

// NativeEnrichment reports whether native metadata providers may be used.
func (c *Config) NativeEnrichment() bool {
	return c.Scan.NativeEnrichment == nil || *c.Scan.NativeEnrichment
}

// Save writes the config as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func boolPtr(b bool) *bool {
	return &b
}
