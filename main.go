// siteassist-widget - An embeddable terminal chat widget for SiteAssist.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mudler/xlog"
	"github.com/muesli/termenv"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/bridge"
	"github.com/siteassist/siteassist-widgets/internal/config"
	"github.com/siteassist/siteassist-widgets/internal/loader"
	"github.com/siteassist/siteassist-widgets/internal/session"
	"github.com/siteassist/siteassist-widgets/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to widget.toml (default: ~/.siteassist/widget.toml)")
		apiKey      = flag.String("api-key", "", "project API key (overrides config)")
		externalID  = flag.String("external-id", "", "host user id to link the visitor to")
		theme       = flag.String("theme", "", "color theme: light, dark or auto")
		apiURL      = flag.String("api-url", "", "chat API base URL")
		bridgeMode  = flag.Bool("bridge", false, "enable the host bridge on fds 3/4")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("siteassist-widget %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags win over file and environment.
	if *apiKey != "" {
		cfg.APIKey = *apiKey
	}
	if *externalID != "" {
		cfg.ExternalID = *externalID
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
		cfg.WSURL = ""
	}
	if *bridgeMode {
		cfg.Bridge = true
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, the default path when none is
// given. A missing default file is fine; an explicit one must exist.
// Validation happens after flag overrides are applied.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()

	if path != "" {
		if err := config.LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if defaultPath, err := config.ConfigPath(); err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			if err := config.LoadTOML(cfg, defaultPath); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func run(cfg *config.Config, configPath string) error {
	if cfg.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	storePath, err := session.DefaultPath()
	if err != nil {
		return err
	}
	store, err := session.Open(storePath)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	clientCfg := api.DefaultConfig()
	clientCfg.BaseURL = cfg.APIURL
	clientCfg.Tokens = store.TokenSource(cfg.APIKey)
	client := api.NewClient(clientCfg)

	deps := app.Deps{
		Config: cfg,
		Client: client,
		Loader: loader.New(client, store, cfg.APIKey, cfg.ExternalID),
		Store:  store,
	}

	root := app.New(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Bridge {
		hostIn := os.NewFile(3, "bridge-in")
		hostOut := os.NewFile(4, "bridge-out")
		if hostIn == nil || hostOut == nil {
			return fmt.Errorf("bridge mode requires pipes on fds 3 and 4")
		}
		b := bridge.New(hostIn, hostOut, root.HandleEnvelope)
		root.SetBridge(b)
		b.Start(ctx)
	}

	program := tea.NewProgram(root, tea.WithAltScreen())

	// Hot-reload theme changes from the config file while running.
	watcher := watchConfig(configPath, program)
	if watcher != nil {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// watchConfig starts the config file watcher; theme changes are pushed
// into the running program. Returns nil when watching is unavailable.
func watchConfig(configPath string, program *tea.Program) *config.Watcher {
	path := configPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return nil
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(path, func(cfg *config.Config) {
		program.Send(app.ConfigReloadedMsg{Config: cfg})
	})
	if err != nil {
		xlog.Debug("Config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Watch(); err != nil {
		xlog.Debug("Config watcher failed to start", "error", err)
		return nil
	}
	return watcher
}
