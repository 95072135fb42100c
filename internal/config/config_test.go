package config

import (
	"os"
	"testing"

	"github.com/dennisdiepolder/monti/feedback/internal/storage"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
				if cfg.TrendDeadBandPct != 5 {
					t.Errorf("expected dead band 5, got %v", cfg.TrendDeadBandPct)
				}
				if cfg.WriteRetries != 3 {
					t.Errorf("expected 3 write retries, got %d", cfg.WriteRetries)
				}
				if cfg.RosterPath != "data/roster.json" {
					t.Errorf("expected default roster path, got %s", cfg.RosterPath)
				}
				if cfg.Store.Mode != storage.ModeFile {
					t.Errorf("expected file store, got %s", cfg.Store.Mode)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"LOG_LEVEL":          "debug",
				"TREND_DEADBAND_PCT": "2.5",
				"WRITE_RETRIES":      "0",
				"ROSTER_PATH":        "/etc/feedback/roster.json",
				"STORE_MODE":         "sqlite",
				"SQLITE_PATH":        "/var/lib/feedback.db",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("expected log level debug, got %s", cfg.LogLevel)
				}
				if cfg.TrendDeadBandPct != 2.5 {
					t.Errorf("expected dead band 2.5, got %v", cfg.TrendDeadBandPct)
				}
				if cfg.WriteRetries != 0 {
					t.Errorf("expected no retries, got %d", cfg.WriteRetries)
				}
				if cfg.RosterPath != "/etc/feedback/roster.json" {
					t.Errorf("unexpected roster path %s", cfg.RosterPath)
				}
				if cfg.Store.Mode != storage.ModeSQLite || cfg.Store.SQLitePath != "/var/lib/feedback.db" {
					t.Errorf("unexpected store config %+v", cfg.Store)
				}
			},
		},
		{
			name:    "invalid TREND_DEADBAND_PCT",
			env:     map[string]string{"TREND_DEADBAND_PCT": "five"},
			wantErr: true,
		},
		{
			name:    "negative TREND_DEADBAND_PCT",
			env:     map[string]string{"TREND_DEADBAND_PCT": "-1"},
			wantErr: true,
		},
		{
			name:    "invalid WRITE_RETRIES",
			env:     map[string]string{"WRITE_RETRIES": "invalid"},
			wantErr: true,
		},
		{
			name:    "negative WRITE_RETRIES",
			env:     map[string]string{"WRITE_RETRIES": "-2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
