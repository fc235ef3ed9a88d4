package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jetinfo.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
pages:
  workers: 3
export:
  driver: sqlite3
  overwrite: true
  pragmas:
    - synchronous=OFF
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Pages.Workers != 3 {
		t.Errorf("Pages.Workers = %d, want 3", cfg.Pages.Workers)
	}
	if cfg.Export.Driver != "sqlite3" || !cfg.Export.Overwrite {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if !slices.Equal(cfg.Export.Pragmas, []string{"synchronous=OFF"}) {
		t.Errorf("Export.Pragmas = %v", cfg.Export.Pragmas)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.Logging.Format != def.Logging.Format {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Logging.Format, def.Logging.Format)
	}
	if cfg.Pages.Workers != def.Pages.Workers {
		t.Errorf("Pages.Workers = %d, want default %d", cfg.Pages.Workers, def.Pages.Workers)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/jetinfo.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "logging: [unclosed")); err == nil {
		t.Error("Load() expected parse error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JETDB_LOG_LEVEL", "error")
	t.Setenv("JETDB_LOG_FORMAT", "json")
	t.Setenv("JETDB_WORKERS", "7")
	t.Setenv("JETDB_SQLITE_DRIVER", "sqlite")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Pages.Workers != 7 {
		t.Errorf("Pages.Workers = %d, want 7", cfg.Pages.Workers)
	}
	if cfg.Export.Driver != "sqlite" {
		t.Errorf("Export.Driver = %q", cfg.Export.Driver)
	}
}

func TestLoad_BadWorkersEnv(t *testing.T) {
	t.Setenv("JETDB_WORKERS", "many")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "JETDB_WORKERS") {
		t.Errorf("Load() error = %v, want JETDB_WORKERS error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero workers", func(c *Config) { c.Pages.Workers = 0 }, "pages.workers"},
		{"stacked pragma", func(c *Config) { c.Export.Pragmas = []string{"a=1; DROP TABLE x"} }, "export.pragmas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
