package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"EXPORT_DIR", "EXPORT_BATCH_SIZE", "JOB_STORE", "DOWNLOAD_TOKEN_TTL"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.ExportDir != DefaultExportDir {
		t.Errorf("ExportDir = %q, want %q", cfg.ExportDir, DefaultExportDir)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if cfg.JobStore != DefaultJobStore {
		t.Errorf("JobStore = %q, want %q", cfg.JobStore, DefaultJobStore)
	}
	if cfg.DownloadTTL != DefaultDownloadTTL {
		t.Errorf("DownloadTTL = %v, want %v", cfg.DownloadTTL, DefaultDownloadTTL)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("EXPORT_BATCH_SIZE", "250")
	t.Setenv("EXPORT_EXTRA_DIRS", " /srv/a , ,/srv/b")
	t.Setenv("DOWNLOAD_TOKEN_TTL", "90m")
	t.Setenv("JOB_STORE", "redis")

	cfg := LoadConfig()

	if cfg.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.BatchSize)
	}
	if len(cfg.ExtraDirs) != 2 || cfg.ExtraDirs[0] != "/srv/a" || cfg.ExtraDirs[1] != "/srv/b" {
		t.Errorf("ExtraDirs = %v, want [/srv/a /srv/b]", cfg.ExtraDirs)
	}
	if cfg.DownloadTTL != 90*time.Minute {
		t.Errorf("DownloadTTL = %v, want 90m", cfg.DownloadTTL)
	}
	if cfg.JobStore != "redis" {
		t.Errorf("JobStore = %q, want redis", cfg.JobStore)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		DBHost: "localhost", DBPort: 5432, DBName: "shop", DBUser: "u",
		ExportDir: "exports", BatchSize: 100, JobStore: "sqlite", JobStorePath: "jobs.db",
		DownloadTTL: time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.DBPort = 0 }, wantErr: "DB_PORT"},
		{name: "empty host", mutate: func(c *Config) { c.DBHost = "  " }, wantErr: "DB_HOST"},
		{name: "zero batch", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: "EXPORT_BATCH_SIZE"},
		{name: "unknown store", mutate: func(c *Config) { c.JobStore = "etcd" }, wantErr: "JOB_STORE"},
		{name: "sqlite without path", mutate: func(c *Config) { c.JobStorePath = "" }, wantErr: "JOB_STORE_PATH"},
		{name: "redis without addr", mutate: func(c *Config) { c.JobStore = "redis"; c.RedisAddr = "" }, wantErr: "REDIS_ADDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestGetConnectionString(t *testing.T) {
	cfg := Config{DBDriver: "postgres", DBUser: "shop", DBPass: "p@ss", DBHost: "db", DBPort: 5433, DBName: "store", SSLMode: "disable"}
	got := cfg.GetConnectionString()
	want := "postgres://shop:p%40ss@db:5433/store?sslmode=disable"
	if got != want {
		t.Errorf("GetConnectionString() = %q, want %q", got, want)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := `name: spring
kind: product
fields: [ID, Title]
formats: [csv, json]
headers:
  Title: Name
filters:
  types: [variable]
  mode: modified
  date_range: last90
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Kind != "product" || len(p.Fields) != 2 || p.Headers["Title"] != "Name" {
		t.Errorf("unexpected profile: %+v", p)
	}
	if p.Filters.Mode != "modified" || p.Filters.DateRange != "last90" || p.Filters.Types[0] != "variable" {
		t.Errorf("unexpected filters: %+v", p.Filters)
	}
}

func TestLoadProfile_MissingKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	if err := os.WriteFile(path, []byte("fields: [ID]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Error("LoadProfile() should fail when kind is missing")
	}
}
