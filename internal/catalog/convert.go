// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"context"
	"fmt"

	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/models"
)

// effectiveIDTarget picks the output identifier scheme for one item: anime
// titles follow the anime scheme even inside a regular catalog.
func effectiveIDTarget(req *Request, c *models.Candidate) string {
	if req.Anime() || c.IsAnime() {
		return req.Config.AnimeIDType
	}
	if req.MediaType() == models.MediaTypeMovie {
		return req.Config.MovieIDType
	}
	return req.Config.SeriesIDType
}

// convertTargetIDs rewrites each candidate's public identifier into the
// configured scheme, falling back to the provider scheme when no mapping
// exists. The IMDb id is attached whenever it is fetched anyway, so the
// rating-poster integration can key on it.
func (g *Generator) convertTargetIDs(ctx context.Context, req *Request, items []models.Candidate) ([]models.Candidate, error) {
	cfg := req.Config

	return mapBatches(ctx, items, convertBatchSize, 0, func(ctx context.Context, c models.Candidate) (models.Candidate, error) {
		// Unresolved alternate-scheme items (trending gap fill) keep the
		// id they arrived under.
		if c.TMDBID == 0 {
			c.FinalID = c.RawID
			return c, nil
		}

		target := effectiveIDTarget(req, &c)
		mediaType := c.Type
		if mediaType == "" || mediaType == models.MediaTypeUnknown {
			mediaType = req.MediaType()
		}

		needsExternal := target != "tmdb" || cfg.RPDBKey != ""
		if needsExternal && c.External == nil {
			ext, err := g.metadata.ExternalIDsFor(ctx, cfg.TMDBAPIKey, c.TMDBID, mediaType)
			if err != nil {
				logging.Debug().Err(err).Int("tmdb_id", c.TMDBID).Msg("external id fetch failed")
			} else {
				c.External = ext
			}
		}
		if c.External != nil && c.IMDBID == "" {
			c.IMDBID = c.External.IMDBID
		}

		switch target {
		case "imdb":
			if c.IMDBID != "" {
				c.FinalID = c.IMDBID
			}
		case "tvdb":
			if c.External != nil && c.External.TVDBID != 0 {
				c.FinalID = fmt.Sprintf("tvdb:%d", c.External.TVDBID)
			}
		case "kitsu":
			if id, err := g.bridge.KitsuFromTMDB(ctx, c.TMDBID); err == nil && id != 0 {
				c.FinalID = fmt.Sprintf("kitsu:%d", id)
			}
		case "mal":
			if id, err := g.bridge.MALIDFor(ctx, c.TMDBID, mediaType); err == nil && id != 0 {
				c.FinalID = fmt.Sprintf("mal:%d", id)
			}
		}
		if c.FinalID == "" {
			c.FinalID = fmt.Sprintf("tmdb:%d", c.TMDBID)
		}
		return c, nil
	})
}
