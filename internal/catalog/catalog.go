// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package catalog implements the recommendation pipeline: seed resolution,
// multi-engine fan-out, two-pass merge and filter, gap fill, target-id
// conversion, and the stale-while-revalidate orchestrator that serves the
// results.
package catalog

import (
	"context"
	"strings"

	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/models"
	"github.com/cinemind/cinemind/internal/providers"
)

// Pipeline batch sizes and bounds. Stages run in sequential batches with the
// items of one batch in flight concurrently; the anime engine gets smaller
// batches and a pacing delay because its API rate limit is far tighter.
const (
	seedBatchSize     = 20
	animeBatchSize    = 5
	resolveBatchSize  = 25
	convertBatchSize  = 25
	maxCatalogItems   = 50
	gapFillMinItems   = 15
	gapFillTarget     = 40
	maxDiscoveryPages = 5
	topCastPerSeed    = 2
)

// MetadataProvider is the primary metadata engine: identifier resolution,
// detail records, discovery feeds, and person filmographies.
type MetadataProvider interface {
	Resolve(ctx context.Context, apiKey, rawID string, typeHint models.MediaType, expand models.Expand) (*models.CanonicalItem, error)
	Discover(ctx context.Context, apiKey string, q providers.DiscoverQuery) ([]models.Candidate, error)
	WorksByPerson(ctx context.Context, apiKey string, personID int, mediaType models.MediaType, genreID int, minRating float64) ([]models.Candidate, error)
	ExternalIDsFor(ctx context.Context, apiKey string, tmdbID int, mediaType models.MediaType) (*models.ExternalIDs, error)
}

// SocialProvider supplies related titles from the social recommendation
// engine.
type SocialProvider interface {
	Related(ctx context.Context, clientID string, tmdbID int, imdbID string, mediaType models.MediaType) ([]models.Candidate, error)
}

// AnimeProvider supplies anime recommendations and the trending feed.
type AnimeProvider interface {
	Recommendations(ctx context.Context, anilistID int) ([]models.Candidate, error)
	Trending(ctx context.Context) ([]models.Candidate, error)
}

// IDBridge maps titles between the metadata provider's scheme and the anime
// database schemes.
type IDBridge interface {
	AniListIDFor(ctx context.Context, ref providers.TitleRef) (int, error)
	KitsuFromTMDB(ctx context.Context, tmdbID int) (int, error)
	MALIDFor(ctx context.Context, tmdbID int, mediaType models.MediaType) (int, error)
}

// Request describes one catalog generation: the user's configuration, the
// catalog surface being filled, and the optional genre filter from the
// request extras.
type Request struct {
	Config     *config.CatalogConfig
	Definition config.CatalogDefinition
	Genre      string
}

// MediaType returns the content class of the catalog.
func (r *Request) MediaType() models.MediaType {
	if r.Definition.Type == "movie" {
		return models.MediaTypeMovie
	}
	return models.MediaTypeSeries
}

// Anime reports whether this is one of the anime catalog surfaces.
func (r *Request) Anime() bool {
	return strings.HasPrefix(r.Definition.Key, "ani_")
}

// Crew reports whether this catalog recommends by shared cast and crew
// instead of by content similarity.
func (r *Request) Crew() bool {
	return strings.HasPrefix(r.Definition.Key, "crew_")
}

// GenreID returns the provider genre id for the requested genre filter, or 0
// when the request is unfiltered or the name is unknown.
func (r *Request) GenreID() int {
	if r.Genre == "" {
		return 0
	}
	if r.MediaType() == models.MediaTypeMovie {
		return config.MovieGenres[r.Genre]
	}
	return config.SeriesGenres[r.Genre]
}

// fillAllowed reports whether gap filling is enabled for this catalog.
func (r *Request) fillAllowed() bool {
	if r.Anime() {
		return r.Config.AnimeFillGaps
	}
	return r.Config.FillGaps
}
