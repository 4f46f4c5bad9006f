// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"context"

	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
	"github.com/cinemind/cinemind/internal/providers"
)

// fillGaps tops a thin catalog up from a generic feed: the trending-anime
// feed for anime catalogs, the popularity-sorted discovery feed otherwise.
// Filling triggers when the user has no usable history, when a genre filter
// narrows the results, or when the pipeline produced too few items.
func (g *Generator) fillGaps(ctx context.Context, req *Request, f *filter, final []models.Candidate, hasHistory bool) ([]models.Candidate, int) {
	if !req.fillAllowed() {
		return final, 0
	}
	if hasHistory && req.GenreID() == 0 && len(final) >= gapFillMinItems {
		return final, 0
	}

	before := len(final)
	present := make(map[string]bool, len(final))
	for i := range final {
		present[final[i].Key()] = true
	}

	add := func(items []models.Candidate) {
		for i := range items {
			if len(final) >= gapFillTarget {
				return
			}
			key := items[i].Key()
			if key == "" || present[key] || !f.firstPass(&items[i]) {
				continue
			}
			present[key] = true
			final = append(final, items[i])
		}
	}

	source := "discovery"
	if req.Anime() {
		source = "anime_trending"
		trending, err := g.anime.Trending(ctx)
		if err != nil {
			logging.Warn().Err(err).Msg("trending feed fetch failed")
			return final, 0
		}
		add(trending)
	} else {
		for page := 1; page <= maxDiscoveryPages && len(final) < gapFillTarget; page++ {
			items, err := g.metadata.Discover(ctx, req.Config.TMDBAPIKey, providers.DiscoverQuery{
				Type:      req.MediaType(),
				GenreID:   req.GenreID(),
				MinRating: req.Config.MinRating,
				Language:  req.Config.Language,
				Page:      page,
			})
			if err != nil {
				logging.Warn().Err(err).Int("page", page).Msg("discovery fetch failed")
				break
			}
			add(items)
		}
	}

	filled := len(final) - before
	if filled > 0 {
		metrics.RecordGapFill(req.Definition.ID, source, filled)
	}
	return final, filled
}
