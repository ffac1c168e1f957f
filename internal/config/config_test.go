// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chatconnect/toolgate/internal/transport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  - connection_id: "pipedream-gmail"
    display_name: "Gmail"
    kind: "session"
    endpoint: "https://mcp.example.net/abc/gmail"
    auth_hint: "gmail"
  - connection_id: "calc"
    display_name: "Calculator"
    kind: "http"
    endpoint: "http://localhost:9000/rpc"

timeouts:
  connect: "15s"
  interactive: "10s"
  workflow: "3m"

health:
  ttl: "2m"
  probe_timeout: "20s"

confirmations:
  ttl: "5m"

database:
  path: "./auth.db"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(cfg.Providers))
	}
	if cfg.Providers[0].ConnectionID != "pipedream-gmail" {
		t.Errorf("unexpected connection_id: %s", cfg.Providers[0].ConnectionID)
	}
	if cfg.Providers[0].Kind != transport.KindSession {
		t.Errorf("unexpected kind: %s", cfg.Providers[0].Kind)
	}
	if cfg.Providers[0].AuthHint != "gmail" {
		t.Errorf("unexpected auth_hint: %s", cfg.Providers[0].AuthHint)
	}

	if cfg.Timeouts.Connect != 15*time.Second {
		t.Errorf("connect timeout = %v, want 15s", cfg.Timeouts.Connect)
	}
	if cfg.Timeouts.Workflow != 3*time.Minute {
		t.Errorf("workflow timeout = %v, want 3m", cfg.Timeouts.Workflow)
	}
	if cfg.Health.TTL != 2*time.Minute {
		t.Errorf("health ttl = %v, want 2m", cfg.Health.TTL)
	}
	if cfg.Confirmations.TTL != 5*time.Minute {
		t.Errorf("confirmations ttl = %v, want 5m", cfg.Confirmations.TTL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_ENDPOINT", "http://localhost:7777/rpc")

	configPath := writeConfig(t, `
providers:
  - connection_id: "env-provider"
    display_name: "Env Provider"
    kind: "http"
    endpoint: "${TOOLGATE_TEST_ENDPOINT}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Providers[0].Endpoint != "http://localhost:7777/rpc" {
		t.Errorf("endpoint = %q, want expanded env var", cfg.Providers[0].Endpoint)
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  - connection_id: "p"
    display_name: "P"
    kind: "http"
    endpoint: "${TOOLGATE_DEFINITELY_UNSET_VAR}"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for empty endpoint")
	}
	if !strings.Contains(err.Error(), "endpoint is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
timeouts:
  workflow: "five minutes"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected duration parse error")
	}
	if !strings.Contains(err.Error(), "timeouts.workflow") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_DuplicateConnectionID(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  - connection_id: "dup"
    display_name: "A"
    kind: "http"
    endpoint: "http://a"
  - connection_id: "dup"
    display_name: "B"
    kind: "http"
    endpoint: "http://b"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected duplicate connection_id error")
	}
	if !strings.Contains(err.Error(), "duplicate connection_id") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_UnknownTransportKind(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  - connection_id: "p"
    display_name: "P"
    kind: "carrier-pigeon"
    endpoint: "http://a"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected unknown kind error")
	}
	if !strings.Contains(err.Error(), "unknown transport kind") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTransport_FillsDefaults(t *testing.T) {
	cfg := &Config{}
	tiers := cfg.Transport()
	if tiers.Connect != transport.DefaultConnectTimeout {
		t.Errorf("connect = %v, want default", tiers.Connect)
	}
	if tiers.Interactive != transport.DefaultInteractiveTimeout {
		t.Errorf("interactive = %v, want default", tiers.Interactive)
	}
	if tiers.Workflow != transport.DefaultWorkflowTimeout {
		t.Errorf("workflow = %v, want default", tiers.Workflow)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
