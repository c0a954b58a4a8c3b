package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Source.Mode != "file" {
		t.Errorf("Source.Mode = %q, want file", cfg.Source.Mode)
	}
	if cfg.InputDelimiter() != ';' {
		t.Errorf("InputDelimiter = %q, want ;", cfg.InputDelimiter())
	}
	if cfg.OutputDelimiter() != ',' {
		t.Errorf("OutputDelimiter = %q, want ,", cfg.OutputDelimiter())
	}
	if cfg.Schedule.Interval.Std() != 5*time.Minute {
		t.Errorf("Schedule.Interval = %s, want 5m", cfg.Schedule.Interval.Std())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source:
  mode: http
  url: http://example.com/measurements.csv
  delimiter: ","
schedule:
  interval: 1m
  clean_offset: 5s
port: 9090
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Source.Mode != "http" {
		t.Errorf("Source.Mode = %q, want http", cfg.Source.Mode)
	}
	if cfg.Source.URL != "http://example.com/measurements.csv" {
		t.Errorf("Source.URL = %q", cfg.Source.URL)
	}
	if cfg.InputDelimiter() != ',' {
		t.Errorf("InputDelimiter = %q, want ,", cfg.InputDelimiter())
	}
	if cfg.Schedule.Interval.Std() != time.Minute {
		t.Errorf("Schedule.Interval = %s, want 1m", cfg.Schedule.Interval.Std())
	}
	if cfg.Schedule.CleanOffset.Std() != 5*time.Second {
		t.Errorf("Schedule.CleanOffset = %s, want 5s", cfg.Schedule.CleanOffset.Std())
	}
	// Untouched keys keep their defaults.
	if cfg.Output.Path != "cleaned_measurements.csv" {
		t.Errorf("Output.Path = %q, want default", cfg.Output.Path)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown mode", func(c *Config) { c.Source.Mode = "s3" }, true},
		{"file mode without path", func(c *Config) { c.Source.Path = "" }, true},
		{"http mode without url", func(c *Config) { c.Source.Mode = "http" }, true},
		{"ftp mode without addr", func(c *Config) { c.Source.Mode = "ftp"; c.Source.FTP.Path = "in.csv" }, true},
		{"ftp mode complete", func(c *Config) {
			c.Source.Mode = "ftp"
			c.Source.FTP.Addr = "ftp.example.com:21"
			c.Source.FTP.Path = "in.csv"
		}, false},
		{"empty output path", func(c *Config) { c.Output.Path = "" }, true},
		{"zero interval", func(c *Config) { c.Schedule.Interval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
