package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"filegrip/internal/catalog"
	"filegrip/internal/config"
	"filegrip/internal/details"
	"filegrip/internal/discovery"
	"filegrip/internal/eventbus"
	"filegrip/internal/groups"
	"filegrip/internal/navigation"
	"filegrip/internal/state"
	"filegrip/internal/ui"
)

func main() {
	// Parse command line arguments
	var targetDir, hierarchy string
	flag.StringVar(&targetDir, "dir", "", "Directory holding .filegrip.toml and scanned by default")
	flag.StringVar(&targetDir, "d", "", "Directory holding .filegrip.toml (shorthand)")
	flag.StringVar(&hierarchy, "group-by", "", "Comma separated annotation names, e.g. top,ext")
	flag.Parse()

	if targetDir == "" && flag.NArg() > 0 {
		targetDir = flag.Arg(0)
	}
	if targetDir == "" {
		var err error
		targetDir, err = os.Getwd()
		if err != nil {
			fmt.Printf("Error getting current directory: %v\n", err)
			os.Exit(1)
		}
	}

	absDir, err := filepath.Abs(targetDir)
	if err != nil {
		fmt.Printf("Error resolving path: %v\n", err)
		os.Exit(1)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New()
	defer bus.Close()

	configSvc := config.NewConfigServiceWithBus(absDir, bus)
	cfg, err := configSvc.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if hierarchy != "" {
		cfg.Catalog.Hierarchy = splitList(hierarchy)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Could not open log file: %v", err)
		} else {
			defer logFile.Close()
			log.SetOutput(logFile)
		}
	}

	cat, err := catalog.Open(cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		fmt.Printf("Error opening catalog: %v\n", err)
		os.Exit(1)
	}
	defer cat.Close()
	cat.SetHierarchy(cfg.Catalog.Hierarchy)

	registry := groups.NewRegistry(bus, nil)
	store := state.NewStore(bus)
	nav, err := navigation.NewNavigator(cat, registry, store, bus, cfg.Selection.CountCacheSize)
	if err != nil {
		fmt.Printf("Error creating navigator: %v\n", err)
		os.Exit(1)
	}

	// A new hierarchy invalidates every index, so selection and counts go too
	registry.OnChange(func() {
		store.Reset("hierarchy changed")
		nav.Invalidate()
	})

	fetcher := details.NewFetcher(cat, cfg.Selection.FetchBatchSize, cfg.Selection.FetchConcurrency)
	scanner := discovery.NewScanner(bus, cfg.Scan.MaxDepth)
	roots := resolveRoots(absDir, cfg.Scan.Roots)

	uiModel := ui.NewModel(ui.Deps{
		Context:   ctx,
		Bus:       bus,
		Config:    cfg,
		Catalog:   cat,
		Registry:  registry,
		Store:     store,
		Navigator: nav,
		Fetcher:   fetcher,
		Populate: func(ctx context.Context) error {
			files, err := scanner.Scan(ctx, roots)
			if err != nil {
				return err
			}
			return catalog.Fill(ctx, cat, files)
		},
	})

	p := tea.NewProgram(uiModel, tea.WithAltScreen(), tea.WithContext(ctx))
	uiModel.SetProgram(p)

	// Forward the events the UI reports on
	forward := func(e eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: e})
	}
	for _, eventType := range []eventbus.EventType{
		eventbus.EventSelectionReset,
		eventbus.EventScanCompleted,
		eventbus.EventError,
		eventbus.EventConfigSaved,
	} {
		unsubscribe := bus.Subscribe(eventType, forward)
		defer unsubscribe()
	}

	log.Printf("Starting UI for %s", strings.Join(roots, ", "))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")

	if mode := uiModel.SortMode().String(); mode != cfg.Catalog.Sort {
		cfg.Catalog.Sort = mode
		if err := configSvc.Save(cfg); err != nil {
			log.Printf("Failed to save config: %v", err)
		}
	}
}

// resolveRoots makes relative scan roots relative to the config directory
func resolveRoots(base string, roots []string) []string {
	if len(roots) == 0 {
		return []string{base}
	}
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(base, root)
		}
		out = append(out, filepath.Clean(root))
	}
	return out
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
