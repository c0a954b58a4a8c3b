// Package config loads the pipeline configuration from an optional YAML
// file layered over built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "5m" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// FTPConfig holds credentials for an FTP-hosted source. An empty user
// means anonymous login.
type FTPConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"`
}

// SourceConfig describes where raw measurements come from.
type SourceConfig struct {
	Mode      string    `yaml:"mode"` // "file", "ftp" or "http"
	Path      string    `yaml:"path"`
	URL       string    `yaml:"url"`
	Delimiter string    `yaml:"delimiter"`
	FTP       FTPConfig `yaml:"ftp"`
}

// OutputConfig describes the exported file.
type OutputConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

// ScheduleConfig holds the recurrence interval and the per-stage start
// offsets of the first cycle.
type ScheduleConfig struct {
	Interval        Duration `yaml:"interval"`
	LoadOffset      Duration `yaml:"load_offset"`
	CleanOffset     Duration `yaml:"clean_offset"`
	AggregateOffset Duration `yaml:"aggregate_offset"`
	ExportOffset    Duration `yaml:"export_offset"`
}

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Schedule ScheduleConfig `yaml:"schedule"`
	DBPath   string         `yaml:"db_path"`
	Port     int            `yaml:"port"`
}

func Default() Config {
	return Config{
		Source: SourceConfig{
			Mode:      "file",
			Path:      "measurements.csv",
			Delimiter: ";",
		},
		Output: OutputConfig{
			Path:      "cleaned_measurements.csv",
			Delimiter: ",",
		},
		Schedule: ScheduleConfig{
			Interval:        Duration(5 * time.Minute),
			LoadOffset:      0,
			CleanOffset:     Duration(10 * time.Second),
			AggregateOffset: Duration(15 * time.Second),
			ExportOffset:    Duration(20 * time.Second),
		},
		DBPath: "data/meterflow.db",
		Port:   8080,
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Source.Mode {
	case "file":
		if c.Source.Path == "" {
			return fmt.Errorf("source path required for file mode")
		}
	case "ftp":
		if c.Source.FTP.Addr == "" || c.Source.FTP.Path == "" {
			return fmt.Errorf("ftp addr and path required for ftp mode")
		}
	case "http":
		if c.Source.URL == "" {
			return fmt.Errorf("source url required for http mode")
		}
	default:
		return fmt.Errorf("unknown source mode %q", c.Source.Mode)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path required")
	}
	if c.Schedule.Interval.Std() <= 0 {
		return fmt.Errorf("schedule interval must be positive")
	}
	return nil
}

// InputDelimiter returns the source delimiter as a rune, defaulting to ';'.
func (c Config) InputDelimiter() rune {
	return delimiterRune(c.Source.Delimiter, ';')
}

// OutputDelimiter returns the export delimiter as a rune, defaulting to ','.
func (c Config) OutputDelimiter() rune {
	return delimiterRune(c.Output.Delimiter, ',')
}

func delimiterRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}
