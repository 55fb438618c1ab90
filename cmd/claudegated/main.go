// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groupsio/claudegate/internal/api"
	"github.com/groupsio/claudegate/internal/cache"
	"github.com/groupsio/claudegate/internal/claudeproc"
	"github.com/groupsio/claudegate/internal/config"
	"github.com/groupsio/claudegate/internal/facade"
	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/memory"
)

var version = "0.1.0"

func main() {
	var (
		configPath  string
		host        string
		port        int
		showVersion bool
		debug       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.BoolVar(&debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if showVersion {
		fmt.Printf("claudegated %s\n", version)
		os.Exit(0)
	}

	loader := config.NewLoader()
	if configPath == "" {
		found, err := loader.FindConfig()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		configPath = found
	}

	log.Printf("Using config: %s", configPath)
	cfg, err := loader.LoadWithDefaults(context.Background(), configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if debug {
		os.Setenv("CLAUDEGATE_DEBUG", "1")
	}

	if err := run(cfg); err != nil {
		log.Fatalf("claudegated: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	cliPath, err := claudeproc.Resolve(cfg.CLI.Path)
	if err != nil {
		return fmt.Errorf("resolve claude CLI: %w", err)
	}
	claudeproc.CheckVersion(ctx, cliPath)

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		cacheCfg := cache.Config{
			L1MaxEntries: cfg.Cache.L1MaxEntries,
			L1TTL:        config.ParseDuration(cfg.Cache.L1TTL, time.Hour),
			L2Enabled:    cfg.Cache.L2Enabled,
			L2TTL:        config.ParseDuration(cfg.Cache.L2TTL, 24*time.Hour),
		}
		var store cache.Store
		if cacheCfg.L2Enabled && cfg.Cache.L2StorePath != "" {
			fileStore, err := cache.NewFileStore(cfg.Cache.L2StorePath)
			if err != nil {
				return fmt.Errorf("open cache store: %w", err)
			}
			store = fileStore
		} else if cacheCfg.L2Enabled {
			store = cache.NewMemoryStore()
		}
		respCache = cache.New(cacheCfg, store)
		go respCache.Run(ctx)
	}

	memIndex := memory.Index(memory.NewMemoryIndex())

	idle := config.ParseDuration(cfg.Session.IdleTimeout, 0)
	sweep := config.ParseDuration(cfg.Session.SweepInterval, 0)
	gateway := facade.NewGateway(cliPath, memIndex, respCache, idle, sweep, cfg.Session.MaxConcurrentSpawns)
	go gateway.Run(ctx)

	router := api.NewRouter(api.Dependencies{Gateway: gateway})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		gatewaylog.Infof("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		gatewaylog.Infof("received signal %v, shutting down", sig)
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		gatewaylog.Warnf("error shutting down HTTP server: %v", err)
	}
	gateway.Shutdown(shutdownCtx)

	gatewaylog.Infof("shutdown complete")
	return nil
}
