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

// AnimeBridge maps anime-scheme identifiers to metadata-provider ids.
// Implemented by BridgeClient; injected so the resolver stays testable.
type AnimeBridge interface {
	TMDBFromKitsu(ctx context.Context, kitsuID string) (int, error)
	TMDBFromMAL(ctx context.Context, malID string) (int, models.MediaType, error)
}

// TMDBClient talks to the primary metadata provider. All lookups are cached;
// identifier mappings effectively never expire, detail records do.
type TMDBClient struct {
	api    *apiClient
	base   string
	store  cache.Store
	bridge AnimeBridge
}

// NewTMDBClient builds the metadata client. bridge may be nil, in which case
// anime-scheme identifiers fail to resolve.
func NewTMDBClient(cfg config.ProvidersConfig, store cache.Store, bridge AnimeBridge) *TMDBClient {
	return &TMDBClient{
		api:    newAPIClient("tmdb", rate.Limit(4), 8, 10*time.Second),
		base:   strings.TrimSuffix(cfg.TMDBBaseURL, "/"),
		store:  store,
		bridge: bridge,
	}
}

// idMapping is the cached result of raw-identifier resolution.
type idMapping struct {
	ID   int              `json:"id"`
	Type models.MediaType `json:"type"`
}

// tmdbListItem is one entry of a TMDB list response (recommendations,
// discover). List entries carry genre_ids directly.
type tmdbListItem struct {
	ID               int     `json:"id"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	PosterPath       string  `json:"poster_path,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	VoteAverage      float64 `json:"vote_average,omitempty"`
	Popularity       float64 `json:"popularity,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
}

func (i *tmdbListItem) toCandidate(mediaType models.MediaType, src models.Source) models.Candidate {
	return models.Candidate{
		Source:           src,
		TMDBID:           i.ID,
		Type:             mediaType,
		Title:            i.Title,
		Name:             i.Name,
		Overview:         i.Overview,
		PosterPath:       i.PosterPath,
		GenreIDs:         i.GenreIDs,
		VoteAverage:      i.VoteAverage,
		Popularity:       i.Popularity,
		ReleaseDate:      i.ReleaseDate,
		FirstAirDate:     i.FirstAirDate,
		OriginalLanguage: i.OriginalLanguage,
	}
}

// tmdbDetails is the detail endpoint response, including optional
// append_to_response expansions. Detail records carry full genre objects.
type tmdbDetails struct {
	ID           int    `json:"id"`
	Title        string `json:"title,omitempty"`
	Name         string `json:"name,omitempty"`
	Overview     string `json:"overview,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
	BackdropPath string `json:"backdrop_path,omitempty"`
	ReleaseDate  string `json:"release_date,omitempty"`
	FirstAirDate string `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	Genres       []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres,omitempty"`
	OriginalLanguage string `json:"original_language,omitempty"`

	Recommendations *struct {
		Results []tmdbListItem `json:"results"`
	} `json:"recommendations,omitempty"`
	Credits     *models.Credits     `json:"credits,omitempty"`
	ExternalIDs *models.ExternalIDs `json:"external_ids,omitempty"`
}

// tmdbFindResponse is the external-id lookup response.
type tmdbFindResponse struct {
	MovieResults []tmdbListItem `json:"movie_results"`
	TVResults    []tmdbListItem `json:"tv_results"`
}

// Resolve maps a raw identifier ("tmdb:603", "tt0111161", "tvdb:81189",
// "kitsu:1", "mal:5114") to a canonical detail record, fetching the
// expansions requested in expand. Returns ErrNotFound when the identifier
// maps to nothing.
func (c *TMDBClient) Resolve(ctx context.Context, apiKey, rawID string, typeHint models.MediaType, expand models.Expand) (*models.CanonicalItem, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	mapping, err := c.resolveID(ctx, apiKey, rawID, typeHint)
	if err != nil {
		return nil, err
	}
	return c.Details(ctx, apiKey, mapping.ID, mapping.Type, expand)
}

// resolveID turns a raw identifier into a provider id, consulting the
// identifier-map cache first. Successful mappings are cached for a week;
// failures are cached negatively for a day.
func (c *TMDBClient) resolveID(ctx context.Context, apiKey, rawID string, typeHint models.MediaType) (idMapping, error) {
	key := "map:" + rawID

	var cached idMapping
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("id_map")
		if cached.ID == 0 {
			return idMapping{}, ErrNotFound
		}
		return cached, nil
	}
	metrics.RecordCacheMiss("id_map")

	mapping, err := c.lookupID(ctx, apiKey, rawID, typeHint)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = c.store.Set(ctx, key, idMapping{}, config.TTLNegative)
		}
		return idMapping{}, err
	}

	if err := c.store.Set(ctx, key, mapping, config.TTLIDMap); err != nil {
		logging.Warn().Err(err).Str("id", rawID).Msg("id map cache write failed")
	}
	return mapping, nil
}

func (c *TMDBClient) lookupID(ctx context.Context, apiKey, rawID string, typeHint models.MediaType) (idMapping, error) {
	switch {
	case strings.HasPrefix(rawID, "tmdb:"):
		id := models.ParseTMDBID(rawID)
		if id == 0 {
			return idMapping{}, ErrNotFound
		}
		return idMapping{ID: id, Type: typeHint}, nil

	case strings.HasPrefix(rawID, "tt"):
		return c.findByExternal(ctx, apiKey, rawID, "imdb_id")

	case strings.HasPrefix(rawID, "tvdb:"):
		return c.findByExternal(ctx, apiKey, strings.TrimPrefix(rawID, "tvdb:"), "tvdb_id")

	case strings.HasPrefix(rawID, "kitsu:"):
		if c.bridge == nil {
			return idMapping{}, ErrNotFound
		}
		id, err := c.bridge.TMDBFromKitsu(ctx, strings.TrimPrefix(rawID, "kitsu:"))
		if err != nil {
			return idMapping{}, err
		}
		return idMapping{ID: id, Type: typeHint}, nil

	case strings.HasPrefix(rawID, "mal:"):
		if c.bridge == nil {
			return idMapping{}, ErrNotFound
		}
		id, mediaType, err := c.bridge.TMDBFromMAL(ctx, strings.TrimPrefix(rawID, "mal:"))
		if err != nil {
			return idMapping{}, err
		}
		if mediaType == models.MediaTypeUnknown {
			mediaType = typeHint
		}
		return idMapping{ID: id, Type: mediaType}, nil

	default:
		return idMapping{}, ErrNotFound
	}
}

// findByExternal resolves an IMDb or TVDB identifier via the find endpoint.
// A movie match wins over a series match for IMDb lookups.
func (c *TMDBClient) findByExternal(ctx context.Context, apiKey, externalID, source string) (idMapping, error) {
	var res tmdbFindResponse
	err := c.api.doJSON(ctx, requestConfig{
		operation: "find",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/find/%s", c.base, url.PathEscape(externalID)),
		query: url.Values{
			"api_key":         {apiKey},
			"external_source": {source},
		},
	}, &res)
	if err != nil {
		return idMapping{}, err
	}

	if source != "tvdb_id" && len(res.MovieResults) > 0 {
		return idMapping{ID: res.MovieResults[0].ID, Type: models.MediaTypeMovie}, nil
	}
	if len(res.TVResults) > 0 {
		return idMapping{ID: res.TVResults[0].ID, Type: models.MediaTypeSeries}, nil
	}
	return idMapping{}, ErrNotFound
}

// Details fetches a canonical detail record with the requested expansions,
// cached keyed by (type, id, expansion set).
func (c *TMDBClient) Details(ctx context.Context, apiKey string, tmdbID int, mediaType models.MediaType, expand models.Expand) (*models.CanonicalItem, error) {
	if mediaType == models.MediaTypeUnknown {
		mediaType = models.MediaTypeSeries
	}
	key := fmt.Sprintf("details:%s:%d:%s", mediaType, tmdbID, expand.String())

	var cached models.CanonicalItem
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("details")
		return &cached, nil
	}
	metrics.RecordCacheMiss("details")

	query := url.Values{"api_key": {apiKey}}
	if !expand.Empty() {
		query.Set("append_to_response", expand.String())
	}

	var d tmdbDetails
	err := c.api.doJSON(ctx, requestConfig{
		operation: "details",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/%s/%d", c.base, endpointFor(mediaType), tmdbID),
		query:     query,
	}, &d)
	if err != nil {
		return nil, err
	}

	item := models.CanonicalItem{
		ID:               d.ID,
		Type:             mediaType,
		Title:            d.Title,
		Name:             d.Name,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		ReleaseDate:      d.ReleaseDate,
		FirstAirDate:     d.FirstAirDate,
		VoteAverage:      d.VoteAverage,
		Popularity:       d.Popularity,
		OriginalLanguage: d.OriginalLanguage,
		Credits:          d.Credits,
		External:         d.ExternalIDs,
	}
	for _, g := range d.Genres {
		item.GenreIDs = append(item.GenreIDs, g.ID)
	}
	if d.Recommendations != nil {
		for i := range d.Recommendations.Results {
			item.Recommendations = append(item.Recommendations,
				d.Recommendations.Results[i].toCandidate(mediaType, models.SourceMetadata))
		}
	}

	if err := c.store.Set(ctx, key, &item, config.TTLDetails); err != nil {
		logging.Warn().Err(err).Int("tmdb_id", tmdbID).Msg("details cache write failed")
	}
	return &item, nil
}

// DiscoverQuery parameterizes a discovery feed page.
type DiscoverQuery struct {
	Type      models.MediaType
	GenreID   int
	MinRating float64
	Language  string
	Page      int
	Anime     bool
}

// Discover fetches one page of the popularity-sorted discovery feed. Anime
// queries pin the Animation genre and Japanese original language.
func (c *TMDBClient) Discover(ctx context.Context, apiKey string, q DiscoverQuery) ([]models.Candidate, error) {
	key := fmt.Sprintf("discover:%s:%d:%g:%s:%d:%t", q.Type, q.GenreID, q.MinRating, q.Language, q.Page, q.Anime)

	var cached []models.Candidate
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("discovery")
		return tagged(cached, models.SourceMetadata), nil
	}
	metrics.RecordCacheMiss("discovery")

	query := url.Values{
		"api_key":        {apiKey},
		"sort_by":        {"popularity.desc"},
		"include_adult":  {"false"},
		"include_video":  {"false"},
		"page":           {strconv.Itoa(q.Page)},
		"vote_count.gte": {"10"},
	}
	if q.Anime {
		genres := strconv.Itoa(models.AnimationGenreID)
		if q.GenreID != 0 {
			genres = fmt.Sprintf("%d,%d", q.GenreID, models.AnimationGenreID)
		}
		query.Set("with_genres", genres)
		query.Set("with_original_language", "ja")
	} else {
		if q.GenreID != 0 {
			query.Set("with_genres", strconv.Itoa(q.GenreID))
		}
		if q.Language != "" && q.Language != "any" {
			query.Set("with_original_language", q.Language)
		}
	}
	if q.MinRating > 0 {
		query.Set("vote_average.gte", strconv.FormatFloat(q.MinRating, 'f', -1, 64))
	}

	var res struct {
		Results []tmdbListItem `json:"results"`
	}
	err := c.api.doJSON(ctx, requestConfig{
		operation: "discover",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/discover/%s", c.base, endpointFor(q.Type)),
		query:     query,
	}, &res)
	if err != nil {
		return nil, err
	}

	items := make([]models.Candidate, 0, len(res.Results))
	for i := range res.Results {
		items = append(items, res.Results[i].toCandidate(q.Type, models.SourceMetadata))
	}

	if err := c.store.Set(ctx, key, items, config.TTLDiscovery); err != nil {
		logging.Warn().Err(err).Msg("discovery cache write failed")
	}
	return items, nil
}

// worksPerPerson caps how many titles one cast or crew member contributes.
const worksPerPerson = 5

// WorksByPerson fetches a person's most-voted works matching the genre and
// rating constraints, capped at worksPerPerson titles.
func (c *TMDBClient) WorksByPerson(ctx context.Context, apiKey string, personID int, mediaType models.MediaType, genreID int, minRating float64) ([]models.Candidate, error) {
	key := fmt.Sprintf("works:%s:%d:%d:%g", mediaType, personID, genreID, minRating)

	var cached []models.Candidate
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("id_map")
		return tagged(cached, models.SourceMetadata), nil
	}
	metrics.RecordCacheMiss("id_map")

	query := url.Values{
		"api_key":        {apiKey},
		"with_people":    {strconv.Itoa(personID)},
		"sort_by":        {"vote_count.desc"},
		"page":           {"1"},
		"vote_count.gte": {"50"},
	}
	if genreID != 0 {
		query.Set("with_genres", strconv.Itoa(genreID))
	}
	if minRating > 0 {
		query.Set("vote_average.gte", strconv.FormatFloat(minRating, 'f', -1, 64))
	}

	var res struct {
		Results []tmdbListItem `json:"results"`
	}
	err := c.api.doJSON(ctx, requestConfig{
		operation: "works_by_person",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/discover/%s", c.base, endpointFor(mediaType)),
		query:     query,
	}, &res)
	if err != nil {
		return nil, err
	}

	n := len(res.Results)
	if n > worksPerPerson {
		n = worksPerPerson
	}
	items := make([]models.Candidate, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, res.Results[i].toCandidate(mediaType, models.SourceMetadata))
	}

	if err := c.store.Set(ctx, key, items, config.TTLIDMap); err != nil {
		logging.Warn().Err(err).Int("person_id", personID).Msg("works cache write failed")
	}
	return items, nil
}

// ExternalIDsFor fetches the alternate-scheme identifier bundle for a title,
// cached for a month.
func (c *TMDBClient) ExternalIDsFor(ctx context.Context, apiKey string, tmdbID int, mediaType models.MediaType) (*models.ExternalIDs, error) {
	key := fmt.Sprintf("ext_ids:%s:%d", mediaType, tmdbID)

	var cached models.ExternalIDs
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("external_ids")
		return &cached, nil
	}
	metrics.RecordCacheMiss("external_ids")

	var ext models.ExternalIDs
	err := c.api.doJSON(ctx, requestConfig{
		operation: "external_ids",
		method:    http.MethodGet,
		url:       fmt.Sprintf("%s/%s/%d/external_ids", c.base, endpointFor(mediaType), tmdbID),
		query:     url.Values{"api_key": {apiKey}},
	}, &ext)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, &ext, config.TTLExternalIDs); err != nil {
		logging.Warn().Err(err).Int("tmdb_id", tmdbID).Msg("external ids cache write failed")
	}
	return &ext, nil
}

func endpointFor(t models.MediaType) string {
	if t == models.MediaTypeMovie {
		return "movie"
	}
	return "tv"
}

// tagged restores the in-memory source tag on cache-loaded candidates; the
// tag is deliberately not serialized.
func tagged(items []models.Candidate, src models.Source) []models.Candidate {
	for i := range items {
		items[i].Source = src
	}
	return items
}
