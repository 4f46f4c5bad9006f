// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package models

import (
	"fmt"
	"strings"
)

// MetaItem is one display-ready catalog entry in the addon response shape.
type MetaItem struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	Description string `json:"description"`
	ReleaseInfo string `json:"releaseInfo"`
	IMDBRating  string `json:"imdbRating,omitempty"`

	// Sort keys retained so cached payloads can be re-sorted per request.
	VoteAverage float64 `json:"_vote,omitempty"`
	Popularity  float64 `json:"_popularity,omitempty"`
	ReleaseDate string  `json:"_date,omitempty"`
}

// MetaResponse is the catalog response returned to the caller.
type MetaResponse struct {
	Metas []MetaItem `json:"metas"`
}

// posterBaseURL is the primary provider's image CDN prefix for w500 posters.
const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// rpdbPosterURL renders a rating-poster-integration URL for an IMDb id.
func rpdbPosterURL(rpdbKey, imdbID string) string {
	return fmt.Sprintf("https://api.ratingposterdb.com/%s/imdb/poster-default/%s.jpg", rpdbKey, imdbID)
}

// MetaFromCandidate builds the display record for a finished candidate.
// When a poster-rating key is configured and the item has an IMDb id, the
// rating-poster service takes precedence over the provider poster.
func MetaFromCandidate(c *Candidate, mediaType MediaType, rpdbKey string) MetaItem {
	poster := ""
	if c.PosterPath != "" {
		poster = posterBaseURL + c.PosterPath
	}
	if rpdbKey != "" && c.IMDBID != "" {
		poster = rpdbPosterURL(rpdbKey, c.IMDBID)
	}

	id := c.FinalID
	if id == "" {
		id = fmt.Sprintf("tmdb:%d", c.TMDBID)
	}

	rating := ""
	if c.VoteAverage > 0 {
		rating = fmt.Sprintf("%.1f", c.VoteAverage)
	}

	date := c.ReleaseOrAirDate()
	year, _, _ := strings.Cut(date, "-")

	return MetaItem{
		ID:          id,
		Type:        string(mediaType),
		Name:        c.DisplayTitle(),
		Poster:      poster,
		Description: c.Overview,
		ReleaseInfo: year,
		IMDBRating:  rating,
		VoteAverage: c.VoteAverage,
		Popularity:  c.Popularity,
		ReleaseDate: date,
	}
}
