// ABOUTME: Configuration loading and parsing for toolgate
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/transport"
)

// Config represents the complete toolgate configuration
type Config struct {
	Providers     []provider.Config   `yaml:"providers"`
	Timeouts      TimeoutsConfig      `yaml:"timeouts"`
	Health        HealthConfig        `yaml:"health"`
	Confirmations ConfirmationsConfig `yaml:"confirmations"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// TimeoutsConfig holds the call-timeout tiers. The tiers are
// configuration values so deployments with slower workflow hosts can
// raise the workflow tier without touching code.
type TimeoutsConfig struct {
	Connect     time.Duration `yaml:"-"`
	Interactive time.Duration `yaml:"-"`
	Workflow    time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	ConnectRaw     string `yaml:"connect"`
	InteractiveRaw string `yaml:"interactive"`
	WorkflowRaw    string `yaml:"workflow"`
}

// HealthConfig holds health-probe cache configuration
type HealthConfig struct {
	TTL          time.Duration `yaml:"-"`
	ProbeTimeout time.Duration `yaml:"-"`

	TTLRaw          string `yaml:"ttl"`
	ProbeTimeoutRaw string `yaml:"probe_timeout"`
}

// ConfirmationsConfig holds the confirmation window configuration
type ConfirmationsConfig struct {
	TTL time.Duration `yaml:"-"`

	TTLRaw string `yaml:"ttl"`
}

// DatabaseConfig holds the delegated-credential database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if p.ConnectionID == "" {
			return fmt.Errorf("providers[%d]: connection_id is required", i)
		}
		if _, dup := seen[p.ConnectionID]; dup {
			return fmt.Errorf("providers[%d]: duplicate connection_id %q", i, p.ConnectionID)
		}
		seen[p.ConnectionID] = struct{}{}
		if p.Endpoint == "" {
			return fmt.Errorf("provider %q: endpoint is required", p.ConnectionID)
		}
		switch p.Kind {
		case transport.KindStdio, transport.KindSocket, transport.KindHTTP, transport.KindSession:
		default:
			return fmt.Errorf("provider %q: unknown transport kind %q", p.ConnectionID, p.Kind)
		}
	}
	return nil
}

// Transport returns the configured timeout tiers with defaults filled.
func (c *Config) Transport() transport.Timeouts {
	return transport.Timeouts{
		Connect:     c.Timeouts.Connect,
		Interactive: c.Timeouts.Interactive,
		Workflow:    c.Timeouts.Workflow,
	}.WithDefaults()
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{cfg.Timeouts.ConnectRaw, "timeouts.connect", &cfg.Timeouts.Connect},
		{cfg.Timeouts.InteractiveRaw, "timeouts.interactive", &cfg.Timeouts.Interactive},
		{cfg.Timeouts.WorkflowRaw, "timeouts.workflow", &cfg.Timeouts.Workflow},
		{cfg.Health.TTLRaw, "health.ttl", &cfg.Health.TTL},
		{cfg.Health.ProbeTimeoutRaw, "health.probe_timeout", &cfg.Health.ProbeTimeout},
		{cfg.Confirmations.TTLRaw, "confirmations.ttl", &cfg.Confirmations.TTL},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
