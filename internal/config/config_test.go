package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaultsToMissingFields(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  scan_timeout: 5s
scan:
  native_enrichment: false
wipe:
  default_standard: nist
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := Default()

	if cfg.Server.Port != 9090 {
		t.Fatalf("port=%d want 9090", cfg.Server.Port)
	}
	if cfg.Server.ScanTimeout != 5*time.Second {
		t.Fatalf("scan_timeout=%v want 5s", cfg.Server.ScanTimeout)
	}
	if cfg.Server.Host != d.Server.Host {
		t.Fatalf("host=%q want default %q", cfg.Server.Host, d.Server.Host)
	}
	if cfg.Scan.Workers != d.Scan.Workers {
		t.Fatalf("workers=%d want default %d", cfg.Scan.Workers, d.Scan.Workers)
	}
	if cfg.NativeEnrichment() {
		t.Fatalf("native_enrichment=false was overridden by defaults")
	}
	if !cfg.AllPartitions() {
		t.Fatalf("all_partitions should default to true")
	}
	if cfg.Wipe.DefaultStandard != "nist" || cfg.Wipe.DefaultPasses != d.Wipe.DefaultPasses {
		t.Fatalf("wipe section = %+v", cfg.Wipe)
	}
	if cfg.Certificates.Secret == "" {
		t.Fatalf("certificate secret left empty")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"port":   "server:\n  port: 70000\n",
		"passes": "wipe:\n  default_passes: 40\n  max_passes: 35\n",
		"yaml":   "server: [oops\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level=%q want debug", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Port = 8123
	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 8123 || loaded.Server.ReadTimeout != cfg.Server.ReadTimeout {
		t.Fatalf("loaded server = %+v", loaded.Server)
	}
	if loaded.Addr() != "127.0.0.1:8123" {
		t.Fatalf("Addr()=%q", loaded.Addr())
	}
}
