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

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
)

// BridgeClient maps identifiers between the anime databases and the
// metadata provider, using two public services: the ARM relation map and
// the PlexAniBridge search API. Both are slow and occasionally missing
// entries, so every lookup is cached, including the misses.
type BridgeClient struct {
	armAPI    *apiClient
	bridgeAPI *apiClient
	armURL    string
	bridgeURL string
	store     cache.Store
}

// NewBridgeClient builds the bridge client.
func NewBridgeClient(cfg config.ProvidersConfig, store cache.Store) *BridgeClient {
	return &BridgeClient{
		armAPI:    newAPIClient("arm", rate.Limit(3), 6, 5*time.Second),
		bridgeAPI: newAPIClient("anibridge", rate.Limit(3), 6, 5*time.Second),
		armURL:    cfg.ARMBaseURL,
		bridgeURL: cfg.AniBridgeURL,
		store:     store,
	}
}

// armRecord is the relation-map entry for one title.
type armRecord struct {
	AniList int `json:"anilist,omitempty"`
	Kitsu   int `json:"kitsu,omitempty"`
	MAL     int `json:"myanimelist,omitempty"`
	TMDB    int `json:"tmdb,omitempty"`
	TVDB    int `json:"thetvdb,omitempty"`
}

// BridgeRecord is one PlexAniBridge mapping. mal_id arrives as either a
// scalar or a list depending on the title.
type BridgeRecord struct {
	AniListID   int     `json:"anilist_id,omitempty"`
	MALIDs      malIDs  `json:"mal_id,omitempty"`
	TMDBMovieID int     `json:"tmdb_movie_id,omitempty"`
	TMDBShowID  int     `json:"tmdb_show_id,omitempty"`
	IMDBID      imdbIDs `json:"imdb_id,omitempty"`
}

// FirstMAL returns the primary MAL id, or 0 when unmapped.
func (r *BridgeRecord) FirstMAL() int {
	if len(r.MALIDs) == 0 {
		return 0
	}
	return r.MALIDs[0]
}

// malIDs tolerates both `5114` and `[5114, 34542]` on the wire.
type malIDs []int

func (m *malIDs) UnmarshalJSON(data []byte) error {
	var list []int
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}
	var single int
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*m = malIDs{single}
	return nil
}

// imdbIDs tolerates both a scalar IMDb id and a list.
type imdbIDs []string

func (m *imdbIDs) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*m = imdbIDs{single}
	return nil
}

// bridgeCached wraps a lookup result so negative outcomes cache distinctly
// from absence.
type bridgeCached struct {
	Found  bool          `json:"found"`
	Record *BridgeRecord `json:"record,omitempty"`
}

// Lookup queries PlexAniBridge with the given parameters and returns the
// first match, or (nil, nil) when the title is unknown there. Misses are
// cached for a day, hits for a month.
func (c *BridgeClient) Lookup(ctx context.Context, params url.Values) (*BridgeRecord, error) {
	key := "plexani:" + params.Encode()

	var cached bridgeCached
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("external_ids")
		return cached.Record, nil
	}
	metrics.RecordCacheMiss("external_ids")

	var res struct {
		Results []BridgeRecord `json:"results"`
	}
	err := c.bridgeAPI.doJSON(ctx, requestConfig{
		operation: "search",
		method:    http.MethodGet,
		url:       c.bridgeURL,
		query:     params,
	}, &res)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if len(res.Results) == 0 {
		_ = c.store.Set(ctx, key, bridgeCached{}, config.TTLNegative)
		return nil, nil
	}

	match := res.Results[0]
	if err := c.store.Set(ctx, key, bridgeCached{Found: true, Record: &match}, config.TTLExternalIDs); err != nil {
		logging.Warn().Err(err).Msg("bridge cache write failed")
	}
	return &match, nil
}

// TitleRef carries the identifiers the anime check can match on.
type TitleRef struct {
	TMDBID int
	IMDBID string
	RawID  string
	Type   models.MediaType
}

// AniListIDFor returns the anime-engine id for a title, or 0 when the title
// is not in the anime database. IMDb identifiers are preferred; provider
// ids are tried per content class.
func (c *BridgeClient) AniListIDFor(ctx context.Context, ref TitleRef) (int, error) {
	cacheID := ref.RawID
	if cacheID == "" {
		cacheID = strconv.Itoa(ref.TMDBID)
	}
	key := "anime_check:" + cacheID

	var cached int
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("external_ids")
		return cached, nil
	}
	metrics.RecordCacheMiss("external_ids")

	params := url.Values{}
	switch {
	case ref.IMDBID != "":
		params.Set("imdb_id", ref.IMDBID)
	case strings.HasPrefix(ref.RawID, "tt"):
		params.Set("imdb_id", ref.RawID)
	case ref.TMDBID != 0 && ref.Type == models.MediaTypeMovie:
		params.Set("tmdb_movie_id", strconv.Itoa(ref.TMDBID))
	case ref.TMDBID != 0:
		params.Set("tmdb_show_id", strconv.Itoa(ref.TMDBID))
	default:
		return 0, nil
	}

	record, err := c.Lookup(ctx, params)
	if err != nil {
		return 0, err
	}

	anilistID := 0
	ttl := config.TTLIDMap
	if record != nil && record.AniListID != 0 {
		anilistID = record.AniListID
		ttl = config.TTLExternalIDs
	}
	if err := c.store.Set(ctx, key, anilistID, ttl); err != nil {
		logging.Warn().Err(err).Str("id", cacheID).Msg("anime check cache write failed")
	}
	return anilistID, nil
}

// MALIDFor returns the MAL id for a provider title, or 0 when unmapped.
// Used when catalogs are configured to emit mal-scheme identifiers.
func (c *BridgeClient) MALIDFor(ctx context.Context, tmdbID int, mediaType models.MediaType) (int, error) {
	params := url.Values{}
	if mediaType == models.MediaTypeMovie {
		params.Set("tmdb_movie_id", strconv.Itoa(tmdbID))
	} else {
		params.Set("tmdb_show_id", strconv.Itoa(tmdbID))
	}

	record, err := c.Lookup(ctx, params)
	if err != nil || record == nil {
		return 0, err
	}
	return record.FirstMAL(), nil
}

// TMDBFromKitsu resolves a kitsu-scheme id to a provider id via the
// relation map.
func (c *BridgeClient) TMDBFromKitsu(ctx context.Context, kitsuID string) (int, error) {
	record, err := c.armLookup(ctx, "kitsu", kitsuID)
	if err != nil {
		return 0, err
	}
	if record.TMDB == 0 {
		return 0, ErrNotFound
	}
	return record.TMDB, nil
}

// TMDBFromMAL resolves a mal-scheme id to a provider id and content class
// via PlexAniBridge.
func (c *BridgeClient) TMDBFromMAL(ctx context.Context, malID string) (int, models.MediaType, error) {
	record, err := c.Lookup(ctx, url.Values{"mal_id": {malID}})
	if err != nil {
		return 0, models.MediaTypeUnknown, err
	}
	if record == nil {
		return 0, models.MediaTypeUnknown, ErrNotFound
	}
	if record.TMDBMovieID != 0 {
		return record.TMDBMovieID, models.MediaTypeMovie, nil
	}
	if record.TMDBShowID != 0 {
		return record.TMDBShowID, models.MediaTypeSeries, nil
	}
	return 0, models.MediaTypeUnknown, ErrNotFound
}

// KitsuFromTMDB resolves a provider id to a kitsu id via the relation map's
// reverse direction. Returns 0 when unmapped.
func (c *BridgeClient) KitsuFromTMDB(ctx context.Context, tmdbID int) (int, error) {
	record, err := c.armLookup(ctx, "tmdb", strconv.Itoa(tmdbID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.Kitsu, nil
}

// armLookup queries the relation map for one (source, id) pair, cached for
// a month.
func (c *BridgeClient) armLookup(ctx context.Context, source, id string) (*armRecord, error) {
	key := fmt.Sprintf("revmap:%s:%s", source, id)

	var cached armRecord
	if ok, err := c.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("external_ids")
		return &cached, nil
	}
	metrics.RecordCacheMiss("external_ids")

	var record armRecord
	err := c.armAPI.doJSON(ctx, requestConfig{
		operation: "ids",
		method:    http.MethodGet,
		url:       c.armURL,
		query:     url.Values{"source": {source}, "id": {id}},
	}, &record)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, &record, config.TTLExternalIDs); err != nil {
		logging.Warn().Err(err).Str("source", source).Str("id", id).Msg("relation map cache write failed")
	}
	return &record, nil
}

var _ AnimeBridge = (*BridgeClient)(nil)
