// ABOUTME: Configuration loading for the toolgate-probe CLI
// ABOUTME: Loads TOML config from XDG path with environment variable expansion

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/transport"
)

type Config struct {
	Providers []ProviderConfig `toml:"providers"`
	Timeouts  TimeoutsConfig   `toml:"timeouts"`
	Database  DatabaseConfig   `toml:"database"`
}

type ProviderConfig struct {
	ConnectionID string `toml:"connection_id"`
	DisplayName  string `toml:"display_name"`
	Kind         string `toml:"kind"`
	Endpoint     string `toml:"endpoint"`
	AuthHint     string `toml:"auth_hint"`
}

type TimeoutsConfig struct {
	Connect     string `toml:"connect"`
	Interactive string `toml:"interactive"`
	Workflow    string `toml:"workflow"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// configPath resolves the config location: explicit env var, current
// directory, then the XDG config home.
func configPath() string {
	if path := os.Getenv("TOOLGATE_PROBE_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("toolgate-probe.toml"); err == nil {
		return "toolgate-probe.toml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "toolgate-probe.toml"
	}
	return filepath.Join(home, ".config", "toolgate", "probe.toml")
}

// loadConfig reads config from the given path, expanding environment variables.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one [[providers]] entry is required")
	}
	for i, p := range c.Providers {
		if p.ConnectionID == "" {
			return fmt.Errorf("providers[%d]: connection_id is required", i)
		}
		if p.Endpoint == "" {
			return fmt.Errorf("provider %q: endpoint is required", p.ConnectionID)
		}
		switch transport.Kind(p.Kind) {
		case transport.KindStdio, transport.KindSocket, transport.KindHTTP, transport.KindSession:
		default:
			return fmt.Errorf("provider %q: unknown transport kind %q", p.ConnectionID, p.Kind)
		}
	}
	return nil
}

// providerConfigs converts the TOML entries into registry configs.
func (c *Config) providerConfigs() []provider.Config {
	out := make([]provider.Config, 0, len(c.Providers))
	for _, p := range c.Providers {
		name := p.DisplayName
		if name == "" {
			name = p.ConnectionID
		}
		out = append(out, provider.Config{
			ConnectionID: p.ConnectionID,
			DisplayName:  name,
			Kind:         transport.Kind(p.Kind),
			Endpoint:     p.Endpoint,
			AuthHint:     p.AuthHint,
		})
	}
	return out
}

// timeouts parses the configured tiers, leaving zero values for the
// registry to fill with defaults.
func (c *Config) timeouts() (transport.Timeouts, error) {
	var tiers transport.Timeouts
	fields := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{c.Timeouts.Connect, "timeouts.connect", &tiers.Connect},
		{c.Timeouts.Interactive, "timeouts.interactive", &tiers.Interactive},
		{c.Timeouts.Workflow, "timeouts.workflow", &tiers.Workflow},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return tiers, fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return tiers, nil
}
