// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
)

// relatedLimit is how many related titles one seed contributes.
const relatedLimit = 10

// TraktClient talks to the social recommendation engine. Related-title
// lookups prefer the IMDb id; seeds without one go through a slug search
// first.
type TraktClient struct {
	api   *apiClient
	base  string
	store cache.Store
}

// NewTraktClient builds the social engine client.
func NewTraktClient(cfg config.ProvidersConfig, store cache.Store) *TraktClient {
	return &TraktClient{
		api:   newAPIClient("trakt", rate.Limit(2), 4, 10*time.Second),
		base:  strings.TrimSuffix(cfg.TraktBaseURL, "/"),
		store: store,
	}
}

type traktIDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
}

type traktEntity struct {
	Title string   `json:"title,omitempty"`
	IDs   traktIDs `json:"ids"`
}

type traktSearchResult struct {
	Movie *traktEntity `json:"movie,omitempty"`
	Show  *traktEntity `json:"show,omitempty"`
}

// Related returns up to relatedLimit titles related to the seed. Candidates
// carry only a provider id and type; the second filter pass resolves them.
// Seeds unknown to the engine yield an empty slice, not an error.
func (c *TraktClient) Related(ctx context.Context, clientID string, tmdbID int, imdbID string, mediaType models.MediaType) ([]models.Candidate, error) {
	if clientID == "" {
		return nil, ErrMissingCredential
	}

	lookupID := imdbID
	if lookupID == "" {
		lookupID = strconv.Itoa(tmdbID)
	}
	key := fmt.Sprintf("trakt_recs:%s:%s", mediaType, lookupID)

	var cached []models.Candidate
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("id_map")
		return tagged(cached, models.SourceSocial), nil
	}
	metrics.RecordCacheMiss("id_map")

	slug := imdbID
	if slug == "" {
		var err error
		slug, err = c.slugForTMDB(ctx, clientID, tmdbID, mediaType)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				_ = c.store.Set(ctx, key, []models.Candidate{}, config.TTLNegative)
				return nil, nil
			}
			return nil, err
		}
	}

	var related []traktEntity
	err := c.api.doJSON(ctx, requestConfig{
		operation: "related",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/%s/%s/related", c.base, traktEndpoint(mediaType), url.PathEscape(slug)),
		query:     url.Values{"limit": {strconv.Itoa(relatedLimit)}},
		headers:   c.headers(clientID),
	}, &related)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = c.store.Set(ctx, key, []models.Candidate{}, config.TTLNegative)
			return nil, nil
		}
		return nil, err
	}

	items := make([]models.Candidate, 0, len(related))
	for _, entity := range related {
		if entity.IDs.TMDB == 0 {
			continue
		}
		items = append(items, models.Candidate{
			Source: models.SourceSocial,
			TMDBID: entity.IDs.TMDB,
			Type:   mediaType,
		})
	}

	if err := c.store.Set(ctx, key, items, config.TTLIDMap); err != nil {
		logging.Warn().Err(err).Str("seed", lookupID).Msg("related cache write failed")
	}
	return items, nil
}

// slugForTMDB searches the engine for a provider id and returns the slug of
// the first match.
func (c *TraktClient) slugForTMDB(ctx context.Context, clientID string, tmdbID int, mediaType models.MediaType) (string, error) {
	searchType := "movie"
	if mediaType != models.MediaTypeMovie {
		searchType = "show"
	}

	var results []traktSearchResult
	err := c.api.doJSON(ctx, requestConfig{
		operation: "search",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/search/tmdb/%d", c.base, tmdbID),
		query:     url.Values{"type": {searchType}},
		headers:   c.headers(clientID),
	}, &results)
	if err != nil {
		return "", err
	}

	for _, r := range results {
		entity := r.Movie
		if searchType == "show" {
			entity = r.Show
		}
		if entity != nil && entity.IDs.Slug != "" {
			return entity.IDs.Slug, nil
		}
	}
	return "", ErrNotFound
}

func (c *TraktClient) headers(clientID string) map[string]string {
	return map[string]string{
		"trakt-api-version": "2",
		"trakt-api-key":     clientID,
	}
}

func traktEndpoint(t models.MediaType) string {
	if t == models.MediaTypeMovie {
		return "movies"
	}
	return "shows"
}
