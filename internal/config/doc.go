// Package config handles configuration loading for toolgate.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${TOOLGATE_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	timeouts:
//	  connect: "30s"
//	  interactive: "20s"
//	  workflow: "5m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Providers:
//
//	providers:
//	  - connection_id: "pipedream-gmail"
//	    display_name: "Gmail"
//	    kind: "session"
//	    endpoint: "https://mcp.pipedream.net/abc/gmail"
//	    auth_hint: "gmail"
//
// Timeout tiers:
//
//	timeouts:
//	  connect: "30s"
//	  interactive: "20s"
//	  workflow: "5m"
//
// Health probing:
//
//	health:
//	  ttl: "5m"
//	  probe_timeout: "35s"
//
// Confirmations:
//
//	confirmations:
//	  ttl: "5m"
//
// Database:
//
//	database:
//	  path: "/var/lib/toolgate/auth.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/toolgate/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
