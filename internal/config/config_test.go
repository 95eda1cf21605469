package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	Reset()
	defer Reset()

	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Scheduler.GenerateSpec != "0 6 * * *" {
		t.Errorf("Scheduler.GenerateSpec = %q", cfg.Scheduler.GenerateSpec)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Generation.StrictUniqueness {
		t.Error("StrictUniqueness should default to false")
	}
	if cfg.Server.ShutdownTimeout.Seconds() != 30 {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	Reset()
	defer Reset()

	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "postmill.yaml")
	content := `
store:
  driver: sqlite
  path: ` + filepath.Join(dir, "data") + `
generation:
  strict_uniqueness: true
  seed: 42
scheduler:
  generate_spec: "@every 1h"
  timezone: America/Mexico_City
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Generation.StrictUniqueness {
		t.Error("StrictUniqueness should be true")
	}
	if cfg.Generation.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Generation.Seed)
	}
	if cfg.Scheduler.GenerateSpec != "@every 1h" {
		t.Errorf("GenerateSpec = %q", cfg.Scheduler.GenerateSpec)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.App.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.App.ConfigFile, path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid sqlite",
			cfg:  Config{Store: Store{Driver: "sqlite", Path: "data"}},
		},
		{
			name:    "postgres without dsn",
			cfg:     Config{Store: Store{Driver: "postgres"}},
			wantErr: "store.dsn is required",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Store: Store{Driver: "bolt"}},
			wantErr: "Unknown store driver",
		},
		{
			name:    "bad timezone",
			cfg:     Config{Store: Store{Driver: "sqlite", Path: "data"}, Scheduler: Scheduler{Timezone: "Mars/Olympus"}},
			wantErr: "invalid scheduler.timezone",
		},
		{
			name:    "bad generate schedule",
			cfg:     Config{Store: Store{Driver: "sqlite", Path: "data"}, Scheduler: Scheduler{GenerateSpec: "daily at six"}},
			wantErr: "invalid scheduler.generate_spec",
		},
		{
			name:    "posthog without key",
			cfg:     Config{Store: Store{Driver: "sqlite", Path: "data"}, PostHog: PostHog{Enabled: true}},
			wantErr: "PostHog is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPostProcessConfig_InvalidDuration(t *testing.T) {
	cfg := &Config{Store: Store{Timeout: "soon"}}
	if err := postProcessConfig(cfg); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestDurationFallbacks(t *testing.T) {
	if got := (Store{Timeout: "bogus"}).StoreTimeout().Seconds(); got != 5 {
		t.Errorf("StoreTimeout fallback = %v, want 5", got)
	}
	if got := (Generation{Timeout: "90s"}).RunTimeout().Seconds(); got != 90 {
		t.Errorf("RunTimeout = %v, want 90", got)
	}
}
