// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
)

// AniListClient talks to the anime recommendation engine over its GraphQL
// endpoint. The engine enforces a strict request budget, so the limiter is
// deliberately conservative and callers batch anime seeds smaller than
// regular ones.
type AniListClient struct {
	api   *apiClient
	url   string
	store cache.Store
}

// NewAniListClient builds the anime engine client.
func NewAniListClient(cfg config.ProvidersConfig, store cache.Store) *AniListClient {
	return &AniListClient{
		api:   newAPIClient("anilist", rate.Limit(1), 2, 10*time.Second),
		url:   cfg.AniListURL,
		store: store,
	}
}

const recommendationsQuery = `
query ($id: Int) {
    Media(id: $id, type: ANIME) {
        recommendations(sort: [RATING_DESC, ID_DESC], page: 1, perPage: 10) {
            nodes {
                mediaRecommendation {
                    idMal
                    format
                    title { romaji english }
                    genres
                    tags { name }
                }
            }
        }
    }
}`

const trendingQuery = `
query {
    Page(page: 1, perPage: 20) {
        media(type: ANIME, sort: TRENDING_DESC, isAdult: false) {
            idMal
            title { romaji english }
            genres
            tags { name }
        }
    }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type anilistMedia struct {
	IDMal  int    `json:"idMal"`
	Format string `json:"format,omitempty"`
	Title  struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	Genres []string `json:"genres"`
	Tags   []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

func (m *anilistMedia) toCandidate(src models.Source) models.Candidate {
	title := m.Title.English
	if title == "" {
		title = m.Title.Romaji
	}
	mediaType := models.MediaTypeSeries
	if m.Format == "MOVIE" {
		mediaType = models.MediaTypeMovie
	}

	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, t.Name)
	}
	return models.Candidate{
		Source:     src,
		RawID:      fmt.Sprintf("mal:%d", m.IDMal),
		Title:      title,
		Type:       mediaType,
		GenreNames: m.Genres,
		Tags:       tags,
	}
}

// Recommendations returns the engine's top-rated recommendations for an
// anime, identified by its engine id. Candidates arrive under anime-scheme
// raw ids and need resolution before the final catalog.
func (c *AniListClient) Recommendations(ctx context.Context, anilistID int) ([]models.Candidate, error) {
	key := fmt.Sprintf("anilist_recs:%d", anilistID)

	var cached []models.Candidate
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("id_map")
		return tagged(cached, models.SourceAnime), nil
	}
	metrics.RecordCacheMiss("id_map")

	var res struct {
		Data struct {
			Media struct {
				Recommendations struct {
					Nodes []struct {
						MediaRecommendation *anilistMedia `json:"mediaRecommendation"`
					} `json:"nodes"`
				} `json:"recommendations"`
			} `json:"Media"`
		} `json:"data"`
	}
	err := c.api.doJSON(ctx, requestConfig{
		operation: "recommendations",
		method:    http.MethodPost,
		url:       c.url,
		body: graphqlRequest{
			Query:     recommendationsQuery,
			Variables: map[string]any{"id": anilistID},
		},
	}, &res)
	if err != nil {
		return nil, err
	}

	nodes := res.Data.Media.Recommendations.Nodes
	items := make([]models.Candidate, 0, len(nodes))
	for _, n := range nodes {
		if n.MediaRecommendation == nil || n.MediaRecommendation.IDMal == 0 {
			continue
		}
		items = append(items, n.MediaRecommendation.toCandidate(models.SourceAnime))
	}

	if err := c.store.Set(ctx, key, items, config.TTLIDMap); err != nil {
		logging.Warn().Err(err).Int("anilist_id", anilistID).Msg("recommendations cache write failed")
	}
	return items, nil
}

// Trending returns the current trending-anime feed, used by anime gap-fill.
// One feed serves all users, cached for a day.
func (c *AniListClient) Trending(ctx context.Context) ([]models.Candidate, error) {
	const key = "anilist:trending"

	var cached []models.Candidate
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("discovery")
		return tagged(cached, models.SourceAnimeTrending), nil
	}
	metrics.RecordCacheMiss("discovery")

	var res struct {
		Data struct {
			Page struct {
				Media []anilistMedia `json:"media"`
			} `json:"Page"`
		} `json:"data"`
	}
	err := c.api.doJSON(ctx, requestConfig{
		operation: "trending",
		method:    http.MethodPost,
		url:       c.url,
		body:      graphqlRequest{Query: trendingQuery},
	}, &res)
	if err != nil {
		return nil, err
	}

	media := res.Data.Page.Media
	items := make([]models.Candidate, 0, len(media))
	for i := range media {
		if media[i].IDMal == 0 {
			continue
		}
		candidate := media[i].toCandidate(models.SourceAnimeTrending)
		// The trending feed omits format; everything in it lists as series.
		candidate.Type = models.MediaTypeSeries
		items = append(items, candidate)
	}

	if err := c.store.Set(ctx, key, items, config.TTLAnimeTrending); err != nil {
		logging.Warn().Err(err).Msg("trending cache write failed")
	}
	return items, nil
}
