// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package main is the entry point for the Cinemind addon server.
//
// Cinemind generates personalized Stremio catalogs from a user's watch
// history: history seeds are scored and sampled, fanned out across the
// metadata, social, and anime recommendation engines, filtered against
// the user's settings, and served stale-while-revalidate from the cache.
//
// The server starts in this order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, config file,
//     CINEMIND_* environment variables)
//  2. Logging: zerolog, JSON or console format
//  3. Cache: BadgerDB when cache.path is set, in-memory otherwise
//  4. Providers: metadata, social, anime, id-bridge, and library clients
//  5. Catalog pipeline: generator plus the serving orchestrator
//  6. Supervision: a Suture tree running the HTTP server and cache GC
//
// The process shuts down gracefully on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests get the configured
// shutdown window, and the cache store closes last so background
// refreshes can still write their results.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/cinemind/cinemind/internal/api"
	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/catalog"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/providers"
	"github.com/cinemind/cinemind/internal/supervisor"
	"github.com/cinemind/cinemind/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting cinemind")

	store, err := openStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("cache close failed")
		}
	}()

	orchestrator := buildPipeline(cfg, store)

	router := api.NewRouter(&cfg.Server, orchestrator, baseURL(cfg))
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if badgerStore, ok := store.(*cache.BadgerStore); ok {
		tree.AddStorageService(services.NewCacheGCService(badgerStore, cfg.Cache.GCInterval))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

// openStore selects the cache backend: durable BadgerDB when a path is
// configured, in-memory otherwise.
func openStore(cfg config.CacheConfig) (cache.Store, error) {
	if cfg.Path == "" {
		logging.Info().Msg("using in-memory cache store")
		return cache.NewMemoryStore(), nil
	}
	store, err := cache.OpenBadger(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Msg("using badger cache store")
	return store, nil
}

// buildPipeline wires the provider clients into the catalog pipeline.
func buildPipeline(cfg *config.Config, store cache.Store) *catalog.Orchestrator {
	bridge := providers.NewBridgeClient(cfg.Providers, store)
	tmdb := providers.NewTMDBClient(cfg.Providers, store, bridge)
	trakt := providers.NewTraktClient(cfg.Providers, store)
	anilist := providers.NewAniListClient(cfg.Providers, store)
	stremio := providers.NewStremioClient(cfg.Providers, store)
	mdblist := providers.NewMDBListClient(cfg.Providers, store)

	generator := catalog.NewGenerator(tmdb, trakt, anilist, bridge)
	return catalog.NewOrchestrator(generator, store, stremio, mdblist)
}

// baseURL is the externally visible address used in configure responses.
// Behind a reverse proxy, set server.base_url (CINEMIND_SERVER_BASE_URL);
// the fallback is the bind address.
func baseURL(cfg *config.Config) string {
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}
