// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
)

// MDBListClient fetches watch history from the MDBList sync API. The API
// splits history into watched movies, watched episodes, and in-progress
// playback; Library merges the three into the common library-item shape.
type MDBListClient struct {
	api   *apiClient
	base  string
	store cache.Store
}

// NewMDBListClient builds the MDBList library client.
func NewMDBListClient(cfg config.ProvidersConfig, store cache.Store) *MDBListClient {
	return &MDBListClient{
		api:   newAPIClient("mdblist", rate.Limit(2), 4, 15*time.Second),
		base:  cfg.MDBListBaseURL,
		store: store,
	}
}

type mdblistIDs struct {
	IMDB string `json:"imdb,omitempty"`
	TMDB int    `json:"tmdb,omitempty"`
}

// stremioID builds the common raw identifier from an id bundle: the IMDb id
// when present, else the tmdb-scheme form.
func (ids mdblistIDs) stremioID() string {
	if ids.IMDB != "" {
		return ids.IMDB
	}
	if ids.TMDB != 0 {
		return fmt.Sprintf("tmdb:%d", ids.TMDB)
	}
	return ""
}

func (ids mdblistIDs) tmdbID() string {
	if ids.TMDB == 0 {
		return ""
	}
	return fmt.Sprintf("tmdb:%d", ids.TMDB)
}

type mdblistWatched struct {
	Movies []struct {
		Movie struct {
			Title string     `json:"title"`
			IDs   mdblistIDs `json:"ids"`
		} `json:"movie"`
		LastWatchedAt time.Time `json:"last_watched_at"`
	} `json:"movies"`
	Episodes []struct {
		Episode struct {
			Season int `json:"season"`
			Number int `json:"number"`
			Show   struct {
				Title string     `json:"title"`
				IDs   mdblistIDs `json:"ids"`
			} `json:"show"`
		} `json:"episode"`
		LastWatchedAt time.Time `json:"last_watched_at"`
	} `json:"episodes"`
}

type mdblistPlayback struct {
	IDs      mdblistIDs `json:"ids"`
	Type     string     `json:"type"`
	Title    string     `json:"title"`
	Progress float64    `json:"progress"`
	Season   int        `json:"season,omitempty"`
	Episode  int        `json:"episode,omitempty"`
	PausedAt time.Time  `json:"paused_at"`
}

// Library returns the merged watch history for an API key. Watched movies
// score as fully played; for series only the deepest watched episode per
// show is kept; in-progress playback carries its completion percentage.
func (c *MDBListClient) Library(ctx context.Context, apiKey string) ([]models.LibraryItem, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	key := "mdblist_library:" + cache.HashCredential(apiKey)

	var cached []models.LibraryItem
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("library")
		return cached, nil
	}
	metrics.RecordCacheMiss("library")

	var watched mdblistWatched
	var playback []mdblistPlayback

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := c.api.doJSON(gctx, requestConfig{
			operation: "sync_watched",
			method:    http.MethodGet,
			url:       c.base + "/sync/watched",
			query:     url.Values{"apikey": {apiKey}, "limit": {"5000"}},
		}, &watched)
		if err != nil {
			// One leg failing should not lose the other's history.
			logging.Warn().Err(err).Msg("watched history fetch failed")
		}
		return nil
	})
	g.Go(func() error {
		err := c.api.doJSON(gctx, requestConfig{
			operation: "sync_playback",
			method:    http.MethodGet,
			url:       c.base + "/sync/playback",
			query:     url.Values{"apikey": {apiKey}},
		}, &playback)
		if err != nil {
			logging.Warn().Err(err).Msg("playback history fetch failed")
		}
		return nil
	})
	_ = g.Wait()

	items := c.merge(&watched, playback)
	logging.Debug().
		Int("movies", len(watched.Movies)).
		Int("episodes", len(watched.Episodes)).
		Int("in_progress", len(playback)).
		Int("merged", len(items)).
		Msg("library fetched")

	if err := c.store.Set(ctx, key, items, config.TTLLibrary); err != nil {
		logging.Warn().Err(err).Msg("library cache write failed")
	}
	return items, nil
}

func (c *MDBListClient) merge(watched *mdblistWatched, playback []mdblistPlayback) []models.LibraryItem {
	items := make([]models.LibraryItem, 0, len(watched.Movies)+len(watched.Episodes)+len(playback))
	seen := make(map[string]bool)

	for _, m := range watched.Movies {
		id := m.Movie.IDs.stremioID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		lastWatched := m.LastWatchedAt
		if lastWatched.IsZero() {
			lastWatched = time.Now()
		}
		items = append(items, models.LibraryItem{
			ID:     id,
			TMDBID: m.Movie.IDs.tmdbID(),
			IMDBID: m.Movie.IDs.IMDB,
			Type:   models.MediaTypeMovie,
			Name:   orUnknown(m.Movie.Title),
			State: models.PlaybackState{
				LastWatched:      lastWatched,
				FlaggedAsWatched: true,
				TimeOffset:       1,
				Duration:         1,
			},
		})
	}

	// Keep only the deepest watched episode per show; depth drives the
	// engagement score.
	type showProgress struct {
		name        string
		ids         mdblistIDs
		season      int
		episode     int
		lastWatched time.Time
	}
	shows := make(map[string]showProgress)
	showOrder := make([]string, 0)

	for _, e := range watched.Episodes {
		id := e.Episode.Show.IDs.stremioID()
		if id == "" {
			continue
		}
		current, exists := shows[id]
		deeper := e.Episode.Season > current.season ||
			(e.Episode.Season == current.season && e.Episode.Number > current.episode)
		if !exists || deeper {
			if !exists {
				showOrder = append(showOrder, id)
			}
			lastWatched := e.LastWatchedAt
			if lastWatched.IsZero() {
				lastWatched = time.Now()
			}
			shows[id] = showProgress{
				name:        orUnknown(e.Episode.Show.Title),
				ids:         e.Episode.Show.IDs,
				season:      e.Episode.Season,
				episode:     e.Episode.Number,
				lastWatched: lastWatched,
			}
		}
	}
	for _, id := range showOrder {
		if seen[id] {
			continue
		}
		seen[id] = true
		show := shows[id]
		items = append(items, models.LibraryItem{
			ID:     id,
			TMDBID: show.ids.tmdbID(),
			IMDBID: show.ids.IMDB,
			Type:   models.MediaTypeSeries,
			Name:   show.name,
			State: models.PlaybackState{
				LastWatched:      show.lastWatched,
				Season:           show.season,
				Episode:          show.episode,
				FlaggedAsWatched: true,
				TimeOffset:       1,
				Duration:         1,
			},
		})
	}

	for _, p := range playback {
		id := p.IDs.stremioID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		mediaType := models.MediaTypeSeries
		if p.Type == "movie" {
			mediaType = models.MediaTypeMovie
		}
		lastWatched := p.PausedAt
		if lastWatched.IsZero() {
			lastWatched = time.Now()
		}
		items = append(items, models.LibraryItem{
			ID:     id,
			TMDBID: p.IDs.tmdbID(),
			IMDBID: p.IDs.IMDB,
			Type:   mediaType,
			Name:   orUnknown(p.Title),
			State: models.PlaybackState{
				LastWatched: lastWatched,
				Season:      p.Season,
				Episode:     p.Episode,
				TimeOffset:  p.Progress,
				Duration:    100,
			},
		})
	}

	return items
}

func orUnknown(title string) string {
	if title == "" {
		return "Unknown"
	}
	return title
}
