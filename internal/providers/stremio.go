// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package providers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
)

// StremioClient fetches a user's library from the Stremio datastore API.
// The library is cached briefly per credential so one catalog page load
// (six catalogs, each needing history) costs one upstream call.
type StremioClient struct {
	api   *apiClient
	url   string
	store cache.Store
}

// NewStremioClient builds the Stremio library client.
func NewStremioClient(cfg config.ProvidersConfig, store cache.Store) *StremioClient {
	return &StremioClient{
		api:   newAPIClient("stremio", rate.Limit(2), 4, 15*time.Second),
		url:   cfg.StremioAPIURL,
		store: store,
	}
}

// Library returns the full watch history for a credential. Selection and
// scoring happen downstream; this returns raw items.
func (c *StremioClient) Library(ctx context.Context, authKey string) ([]models.LibraryItem, error) {
	if authKey == "" {
		return nil, ErrMissingCredential
	}
	key := "library:" + cache.HashCredential(authKey)

	var cached []models.LibraryItem
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("library")
		return cached, nil
	}
	metrics.RecordCacheMiss("library")

	var res struct {
		Result []models.LibraryItem `json:"result"`
	}
	err := c.api.doJSON(ctx, requestConfig{
		operation: "datastore_get",
		method:    http.MethodPost,
		url:       c.url,
		body: map[string]any{
			"authKey":    authKey,
			"collection": "libraryItem",
			"all":        true,
		},
	}, &res)
	if err != nil {
		return nil, err
	}

	items := res.Result
	if items == nil {
		items = []models.LibraryItem{}
	}
	logging.Debug().Int("items", len(items)).Msg("library fetched")

	if err := c.store.Set(ctx, key, items, config.TTLLibrary); err != nil {
		logging.Warn().Err(err).Msg("library cache write failed")
	}
	return items, nil
}
