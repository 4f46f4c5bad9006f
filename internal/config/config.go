// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package config loads application configuration via Koanf v2 with layered
// sources (defaults, config file, environment) and owns the per-user catalog
// configuration decoded from addon URLs.
package config

import "time"

// Config is the application-level configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	Providers ProvidersConfig `koanf:"providers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-IP request budget per minute. 0 disables.
	RateLimit int `koanf:"rate_limit"`

	// BaseURL is the externally visible address used in generated install
	// links. Empty derives it from the bind address.
	BaseURL string `koanf:"base_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CacheConfig holds cache store settings.
type CacheConfig struct {
	// Path is the on-disk directory for the durable store. Empty selects
	// the in-memory store (no persistence across restarts).
	Path string `koanf:"path"`

	// GCInterval is how often the durable store's value-log garbage
	// collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ProvidersConfig holds upstream base URLs. These are configurable so tests
// and self-hosted mirrors can redirect individual providers.
type ProvidersConfig struct {
	TMDBBaseURL    string `koanf:"tmdb_base_url"`
	TraktBaseURL   string `koanf:"trakt_base_url"`
	AniListURL     string `koanf:"anilist_url"`
	ARMBaseURL     string `koanf:"arm_base_url"`
	AniBridgeURL   string `koanf:"anibridge_url"`
	StremioAPIURL  string `koanf:"stremio_api_url"`
	MDBListBaseURL string `koanf:"mdblist_base_url"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            7010,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Path:       "data/cache",
			GCInterval: 10 * time.Minute,
		},
		Providers: ProvidersConfig{
			TMDBBaseURL:    "https://api.themoviedb.org/3",
			TraktBaseURL:   "https://api.trakt.tv",
			AniListURL:     "https://graphql.anilist.co",
			ARMBaseURL:     "https://arm.haglund.dev/api/v2/ids",
			AniBridgeURL:   "https://plexanibridge-api.elias.eu.org/api/v2/search",
			StremioAPIURL:  "https://api.strem.io/api/datastoreGet",
			MDBListBaseURL: "https://api.mdblist.com",
		},
	}
}
