package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Review.MaxReworkAttempts != 3 {
		t.Errorf("MaxReworkAttempts = %d, want 3", cfg.Review.MaxReworkAttempts)
	}
	if cfg.Review.NextTaskDeadlineDays != 7 {
		t.Errorf("NextTaskDeadlineDays = %d, want 7", cfg.Review.NextTaskDeadlineDays)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "postgres" },
			wantErr: "store.driver",
		},
		{
			name:    "mongo without uri",
			mutate:  func(c *Config) { c.Store.Driver = "mongo"; c.Mongo.URI = "" },
			wantErr: "mongo.uri",
		},
		{
			name:    "zero rework ceiling",
			mutate:  func(c *Config) { c.Review.MaxReworkAttempts = 0 },
			wantErr: "max_rework_attempts",
		},
		{
			name:    "negative deadline",
			mutate:  func(c *Config) { c.Review.NextTaskDeadlineDays = -1 },
			wantErr: "next_task_deadline_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
review:
  max_rework_attempts: 5
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIMESHEET_REVIEW_NEXT_TASK_DEADLINE_DAYS", "3")

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Review.MaxReworkAttempts != 5 {
		t.Errorf("MaxReworkAttempts = %d, want 5", cfg.Review.MaxReworkAttempts)
	}
	if cfg.Review.NextTaskDeadlineDays != 3 {
		t.Errorf("NextTaskDeadlineDays = %d, want 3 from env", cfg.Review.NextTaskDeadlineDays)
	}
}
