// Package config loads service settings for lifecycle-supervised binaries from
// a TOML or YAML file in a standard location.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	lcerrors "github.com/vinayprograms/lifecycle/errors"
	"github.com/vinayprograms/lifecycle/logging"
	"github.com/vinayprograms/lifecycle/telemetry"
)

// FileName is the config file name searched for by Load.
const FileName = "lifecycle.toml"

// YAMLFileName is the YAML alternative to FileName.
const YAMLFileName = "lifecycle.yaml"

// Config holds settings loaded from lifecycle.toml.
type Config struct {
	Log       LogConfig       `toml:"log" yaml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry" yaml:"telemetry"`
	Events    EventsConfig    `toml:"events" yaml:"events"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Workers   WorkersConfig   `toml:"workers" yaml:"workers"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	Protocol    string `toml:"protocol" yaml:"protocol"` // grpc, http or stdout
	Endpoint    string `toml:"endpoint" yaml:"endpoint"`
	ServiceName string `toml:"service_name" yaml:"service_name"`
	Insecure    bool   `toml:"insecure" yaml:"insecure"`
}

// EventsConfig configures the lifecycle event exporter.
type EventsConfig struct {
	Protocol string `toml:"protocol" yaml:"protocol"` // noop, http or file
	Endpoint string `toml:"endpoint" yaml:"endpoint"` // URL for http, path for file
}

// ServerConfig configures the example HTTP/TCP listeners.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// WorkersConfig configures the example worker pool.
type WorkersConfig struct {
	Count    int      `toml:"count" yaml:"count"`
	Interval Duration `toml:"interval" yaml:"interval"`
}

// Duration is a time.Duration written as a string ("500ms", "2s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "lifecycle",
		},
		Events:  EventsConfig{Protocol: "noop"},
		Server:  ServerConfig{Addr: "127.0.0.1:8080"},
		Workers: WorkersConfig{Count: 2, Interval: Duration{time.Second}},
	}
}

// StandardPaths returns the standard config file locations in order of priority
func StandardPaths() []string {
	paths := []string{}

	// 1. Current directory
	paths = append(paths, FileName, YAMLFileName)

	// 2. ~/.config/lifecycle/
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "lifecycle", FileName),
			filepath.Join(home, ".config", "lifecycle", YAMLFileName))
	}

	// 3. /etc/lifecycle/lifecycle.toml
	paths = append(paths, filepath.Join("/etc", "lifecycle", FileName))

	return paths
}

// Load loads configuration from the first available standard location.
// If no file exists the defaults are returned with an empty path.
func Load() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return cfg, path, nil
		}
	}
	cfg := Default()
	cfg.ApplyEnv()
	return cfg, "", nil
}

// LoadFile loads configuration from a specific file. Files ending in .yaml or
// .yml are read as YAML, anything else as TOML. Keys missing from the file
// keep their defaults; environment overrides are applied last.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(path, cfg)
	default:
		err = decodeTOML(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeTOML(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return rejectedKeys(path, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty document: defaults only.
			return nil
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return rejectedKeys(path, strings.Join(typeErr.Errors, "; "))
		}
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func rejectedKeys(path, detail string) error {
	return lcerrors.New(lcerrors.ErrCodeInvalidConfig,
		fmt.Sprintf("rejected keys in %s: %s", path, detail),
		lcerrors.WithMetadata("path", path))
}

// ApplyEnv overrides settings from LIFECYCLE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LIFECYCLE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LIFECYCLE_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LIFECYCLE_EVENTS_ENDPOINT"); v != "" {
		c.Events.Endpoint = v
	}
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Protocol {
		case "grpc", "http", "stdout":
		default:
			return invalid("telemetry.protocol",
				fmt.Sprintf("unknown protocol %q (use grpc, http or stdout)", c.Telemetry.Protocol))
		}
	}

	switch c.Events.Protocol {
	case "", "noop":
	case "http", "file":
		if c.Events.Endpoint == "" {
			return invalid("events.endpoint", "required for "+c.Events.Protocol+" events")
		}
	default:
		return invalid("events.protocol",
			fmt.Sprintf("unknown protocol %q (use noop, http or file)", c.Events.Protocol))
	}

	if c.Workers.Count <= 0 {
		return invalid("workers.count", "must be positive")
	}
	if c.Workers.Interval.Duration <= 0 {
		return invalid("workers.interval", "must be positive")
	}
	return nil
}

func invalid(key, reason string) error {
	return lcerrors.New(lcerrors.ErrCodeInvalidConfig,
		fmt.Sprintf("invalid %s: %s", key, reason),
		lcerrors.WithMetadata("key", key))
}

// Logger returns a logger at the configured level.
func (c *Config) Logger() *logging.Logger {
	logger := logging.New()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// ProviderConfig returns the tracing provider settings.
func (c *Config) ProviderConfig() telemetry.ProviderConfig {
	return telemetry.ProviderConfig{
		ServiceName: c.Telemetry.ServiceName,
		Protocol:    c.Telemetry.Protocol,
		Endpoint:    c.Telemetry.Endpoint,
		Insecure:    c.Telemetry.Insecure,
	}
}

// Exporter creates the configured lifecycle event exporter.
func (c *Config) Exporter() (telemetry.Exporter, error) {
	return telemetry.NewExporter(c.Events.Protocol, c.Events.Endpoint)
}
