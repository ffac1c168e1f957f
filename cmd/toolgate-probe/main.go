// ABOUTME: Probe CLI for toolgate provider connections
// ABOUTME: Connects to configured providers and lists, health-checks, or calls their tools

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/chatconnect/toolgate/internal/authstore"
	"github.com/chatconnect/toolgate/internal/health"
	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/registry"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logLevel := slog.LevelWarn
	if os.Getenv("TOOLGATE_PROBE_VERBOSE") != "" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "providers":
		err = cmdProviders()
	case "tools":
		err = cmdTools(args)
	case "health":
		err = cmdHealth(args)
	case "call":
		err = cmdCall(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`toolgate-probe - inspect and exercise tool provider connections

Usage:
  toolgate-probe providers              Connect and show every provider's state
  toolgate-probe tools [filter]         List discovered tools, optionally filtered by name
  toolgate-probe health <connection-id> Probe one provider's endpoint
  toolgate-probe call <tool> [json-args] [user-id]
                                        Call a tool with JSON arguments
  toolgate-probe help                   Show this help

Config is read from $TOOLGATE_PROBE_CONFIG, ./toolgate-probe.toml, or
~/.config/toolgate/probe.toml.`)
}

// buildRegistry loads config, connects every provider, and returns the
// registry plus a teardown func.
func buildRegistry(ctx context.Context) (*registry.Registry, *Config, func(), error) {
	cfg, err := loadConfig(configPath())
	if err != nil {
		return nil, nil, nil, err
	}
	tiers, err := cfg.timeouts()
	if err != nil {
		return nil, nil, nil, err
	}

	var tokens registry.TokenSource
	var closeStore func()
	if cfg.Database.Path != "" {
		store, err := authstore.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening auth store: %w", err)
		}
		tokens = store
		closeStore = func() { store.Close() }
	}

	checker := health.NewChecker(0, 0, slog.Default())
	reg := registry.New(tiers, provider.DefaultFallbacks(), tokens, checker, slog.Default())

	for _, pc := range cfg.providerConfigs() {
		reg.Connect(ctx, pc)
	}

	teardown := func() {
		reg.Close()
		if closeStore != nil {
			closeStore()
		}
	}
	return reg, cfg, teardown, nil
}

func cmdProviders() error {
	ctx := context.Background()
	reg, _, teardown, err := buildRegistry(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONNECTION\tNAME\tKIND\tSTATE\tTOOLS\tENDPOINT")
	for _, info := range reg.Infos() {
		state := info.State
		fmt.Fprintf(w, "%s\t%s\t%s\t", info.ConnectionID, info.DisplayName, info.Kind)
		switch {
		case state == provider.StateConnected:
			green.Fprint(w, state)
		case state == provider.StateConnectedDegraded:
			yellow.Fprint(w, state)
		default:
			color.New(color.FgRed).Fprint(w, state)
		}
		fmt.Fprintf(w, "\t%d\t%s\n", info.ToolCount, info.Endpoint)
	}
	return w.Flush()
}

func cmdTools(args []string) error {
	ctx := context.Background()
	reg, _, teardown, err := buildRegistry(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}

	tools := reg.ListAllTools()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tPROVIDER\tDESCRIPTION")
	count := 0
	for _, t := range tools {
		if filter != "" && !containsFold(t.Name, filter) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.ProviderName, t.Description)
		count++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d tool(s)\n", count)
	return nil
}

func cmdHealth(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: toolgate-probe health <connection-id>")
	}
	cfg, err := loadConfig(configPath())
	if err != nil {
		return err
	}

	var endpoint string
	for _, p := range cfg.Providers {
		if p.ConnectionID == args[0] {
			endpoint = p.Endpoint
			break
		}
	}
	if endpoint == "" {
		return fmt.Errorf("no provider %q in config", args[0])
	}

	checker := health.NewChecker(0, 0, slog.Default())
	result := checker.Check(context.Background(), endpoint)
	if result.Healthy {
		color.Green("healthy (%s)", result.ResponseTime)
		return nil
	}
	color.Red("unhealthy: %s", result.Error)
	return nil
}

func cmdCall(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: toolgate-probe call <tool> [json-args] [user-id]")
	}
	toolName := args[0]

	callArgs := map[string]any{}
	if len(args) > 1 && args[1] != "" {
		if err := json.Unmarshal([]byte(args[1]), &callArgs); err != nil {
			return fmt.Errorf("parsing arguments JSON: %w", err)
		}
	}
	var userID int64
	if len(args) > 2 {
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("parsing user id: %w", err)
		}
		userID = id
	}

	ctx := context.Background()
	reg, _, teardown, err := buildRegistry(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	result := reg.CallTool(ctx, toolName, callArgs, registry.CallOptions{UserID: userID})
	fmt.Println(registry.UserFacingMessage(toolName, result))
	if result.Success() {
		pretty, err := json.MarshalIndent(json.RawMessage(result.Payload), "", "  ")
		if err == nil {
			fmt.Println(string(pretty))
		}
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
