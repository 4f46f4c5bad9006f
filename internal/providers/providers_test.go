// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/models"
)

func newTestStore(t *testing.T) *cache.MemoryStore {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return store
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestTMDBResolveDirectID(t *testing.T) {
	var detailCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		detailCalls.Add(1)
		writeJSON(t, w, map[string]any{
			"id":                603,
			"title":             "The Matrix",
			"vote_average":      8.2,
			"genres":            []map[string]any{{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}},
			"original_language": "en",
		})
	}))
	defer srv.Close()

	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: srv.URL}, newTestStore(t), nil)

	item, err := client.Resolve(context.Background(), "key", "tmdb:603", models.MediaTypeMovie, models.Expand{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if item.ID != 603 || item.Title != "The Matrix" {
		t.Errorf("item = %+v", item)
	}
	if len(item.GenreIDs) != 2 || item.GenreIDs[0] != 28 {
		t.Errorf("GenreIDs = %v", item.GenreIDs)
	}

	// Second resolve must come from cache.
	if _, err := client.Resolve(context.Background(), "key", "tmdb:603", models.MediaTypeMovie, models.Expand{}); err != nil {
		t.Fatalf("cached Resolve: %v", err)
	}
	if got := detailCalls.Load(); got != 1 {
		t.Errorf("detail calls = %d, want 1", got)
	}
}

func TestTMDBResolveIMDB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/find/tt0133093":
			if got := r.URL.Query().Get("external_source"); got != "imdb_id" {
				t.Errorf("external_source = %q", got)
			}
			writeJSON(t, w, map[string]any{
				"movie_results": []map[string]any{{"id": 603, "title": "The Matrix"}},
				"tv_results":    []map[string]any{},
			})
		case "/movie/603":
			writeJSON(t, w, map[string]any{"id": 603, "title": "The Matrix"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: srv.URL}, newTestStore(t), nil)

	item, err := client.Resolve(context.Background(), "key", "tt0133093", models.MediaTypeUnknown, models.Expand{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if item.ID != 603 || item.Type != models.MediaTypeMovie {
		t.Errorf("item = %+v", item)
	}
}

func TestTMDBResolveUnknownScheme(t *testing.T) {
	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: "http://unused"}, newTestStore(t), nil)

	_, err := client.Resolve(context.Background(), "key", "bogus:1", models.MediaTypeMovie, models.Expand{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTMDBResolveMissingKey(t *testing.T) {
	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: "http://unused"}, newTestStore(t), nil)

	_, err := client.Resolve(context.Background(), "", "tmdb:603", models.MediaTypeMovie, models.Expand{})
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("err = %v, want ErrMissingCredential", err)
	}
}

func TestTMDBDetailsExpansions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("append_to_response"); got != "recommendations,external_ids" {
			t.Errorf("append_to_response = %q", got)
		}
		writeJSON(t, w, map[string]any{
			"id":    1399,
			"name":  "Game of Thrones",
			"recommendations": map[string]any{
				"results": []map[string]any{{"id": 88396, "name": "Sequel Show", "genre_ids": []int{18}}},
			},
			"external_ids": map[string]any{"imdb_id": "tt0944947", "tvdb_id": 121361},
		})
	}))
	defer srv.Close()

	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: srv.URL}, newTestStore(t), nil)

	item, err := client.Details(context.Background(), "key", 1399, models.MediaTypeSeries,
		models.Expand{Recommendations: true, ExternalIDs: true})
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if len(item.Recommendations) != 1 || item.Recommendations[0].TMDBID != 88396 {
		t.Errorf("Recommendations = %+v", item.Recommendations)
	}
	if item.Recommendations[0].Source != models.SourceMetadata {
		t.Errorf("recommendation source = %v", item.Recommendations[0].Source)
	}
	if item.External == nil || item.External.IMDBID != "tt0944947" || item.External.TVDBID != 121361 {
		t.Errorf("External = %+v", item.External)
	}
}

func TestTMDBDiscoverAnimeParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("with_genres"); got != "16" {
			t.Errorf("with_genres = %q, want 16", got)
		}
		if got := q.Get("with_original_language"); got != "ja" {
			t.Errorf("with_original_language = %q, want ja", got)
		}
		if got := q.Get("vote_average.gte"); got != "7" {
			t.Errorf("vote_average.gte = %q, want 7", got)
		}
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{{"id": 37854, "name": "One Piece", "genre_ids": []int{16}, "original_language": "ja"}},
		})
	}))
	defer srv.Close()

	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: srv.URL}, newTestStore(t), nil)

	items, err := client.Discover(context.Background(), "key", DiscoverQuery{
		Type: models.MediaTypeSeries, MinRating: 7, Page: 1, Anime: true,
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(items) != 1 || items[0].TMDBID != 37854 {
		t.Errorf("items = %+v", items)
	}
}

func TestTMDBWorksByPersonCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("with_people"); got != "525" {
			t.Errorf("with_people = %q", got)
		}
		results := make([]map[string]any, 8)
		for i := range results {
			results[i] = map[string]any{"id": 1000 + i, "title": "Film"}
		}
		writeJSON(t, w, map[string]any{"results": results})
	}))
	defer srv.Close()

	client := NewTMDBClient(config.ProvidersConfig{TMDBBaseURL: srv.URL}, newTestStore(t), nil)

	items, err := client.WorksByPerson(context.Background(), "key", 525, models.MediaTypeMovie, 0, 0)
	if err != nil {
		t.Fatalf("WorksByPerson: %v", err)
	}
	if len(items) != worksPerPerson {
		t.Errorf("len = %d, want %d", len(items), worksPerPerson)
	}
}

func TestTraktRelatedWithIMDB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("trakt-api-version") != "2" || r.Header.Get("trakt-api-key") != "cid" {
			t.Errorf("missing trakt headers")
		}
		if r.URL.Path != "/movies/tt0133093/related" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, []map[string]any{
			{"title": "Inception", "ids": map[string]any{"tmdb": 27205}},
			{"title": "No TMDB", "ids": map[string]any{"trakt": 5}},
		})
	}))
	defer srv.Close()

	client := NewTraktClient(config.ProvidersConfig{TraktBaseURL: srv.URL}, newTestStore(t))

	items, err := client.Related(context.Background(), "cid", 603, "tt0133093", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(items) != 1 || items[0].TMDBID != 27205 {
		t.Errorf("items = %+v", items)
	}
	if items[0].Source != models.SourceSocial {
		t.Errorf("source = %v, want social", items[0].Source)
	}
}

func TestTraktRelatedSlugSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/tmdb/1399":
			if got := r.URL.Query().Get("type"); got != "show" {
				t.Errorf("search type = %q", got)
			}
			writeJSON(t, w, []map[string]any{
				{"show": map[string]any{"ids": map[string]any{"slug": "game-of-thrones"}}},
			})
		case "/shows/game-of-thrones/related":
			writeJSON(t, w, []map[string]any{
				{"ids": map[string]any{"tmdb": 94997}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewTraktClient(config.ProvidersConfig{TraktBaseURL: srv.URL}, newTestStore(t))

	items, err := client.Related(context.Background(), "cid", 1399, "", models.MediaTypeSeries)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(items) != 1 || items[0].TMDBID != 94997 {
		t.Errorf("items = %+v", items)
	}
}

func TestAniListRecommendations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Variables["id"] != float64(21) {
			t.Errorf("variables = %v", req.Variables)
		}
		writeJSON(t, w, map[string]any{
			"data": map[string]any{
				"Media": map[string]any{
					"recommendations": map[string]any{
						"nodes": []map[string]any{
							{"mediaRecommendation": map[string]any{
								"idMal":  5114,
								"format": "TV",
								"title":  map[string]any{"english": "Fullmetal Alchemist: Brotherhood"},
								"genres": []string{"Action", "Adventure"},
								"tags":   []map[string]any{{"name": "Alchemy"}},
							}},
							{"mediaRecommendation": nil},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewAniListClient(config.ProvidersConfig{AniListURL: srv.URL}, newTestStore(t))

	items, err := client.Recommendations(context.Background(), 21)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	got := items[0]
	if got.RawID != "mal:5114" || got.Type != models.MediaTypeSeries {
		t.Errorf("candidate = %+v", got)
	}
	if got.Source != models.SourceAnime {
		t.Errorf("source = %v, want anime", got.Source)
	}
	if len(got.GenreNames) != 2 || len(got.Tags) != 1 {
		t.Errorf("genres/tags = %v / %v", got.GenreNames, got.Tags)
	}
}

func TestAniListTrendingCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{
			"data": map[string]any{
				"Page": map[string]any{
					"media": []map[string]any{
						{"idMal": 52991, "title": map[string]any{"romaji": "Sousou no Frieren"}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewAniListClient(config.ProvidersConfig{AniListURL: srv.URL}, newTestStore(t))

	for i := 0; i < 2; i++ {
		items, err := client.Trending(context.Background())
		if err != nil {
			t.Fatalf("Trending: %v", err)
		}
		if len(items) != 1 || items[0].RawID != "mal:52991" {
			t.Errorf("items = %+v", items)
		}
		if items[0].Source != models.SourceAnimeTrending {
			t.Errorf("source = %v", items[0].Source)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestBridgeMALIDFlexibleParsing(t *testing.T) {
	var record BridgeRecord
	if err := json.Unmarshal([]byte(`{"anilist_id":21,"mal_id":[5114,34542],"tmdb_show_id":1399}`), &record); err != nil {
		t.Fatalf("unmarshal list form: %v", err)
	}
	if record.FirstMAL() != 5114 {
		t.Errorf("FirstMAL = %d", record.FirstMAL())
	}

	if err := json.Unmarshal([]byte(`{"mal_id":5114}`), &record); err != nil {
		t.Fatalf("unmarshal scalar form: %v", err)
	}
	if record.FirstMAL() != 5114 {
		t.Errorf("FirstMAL = %d", record.FirstMAL())
	}
}

func TestBridgeAniListIDForNegativeCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	client := NewBridgeClient(config.ProvidersConfig{AniBridgeURL: srv.URL}, newTestStore(t))

	for i := 0; i < 2; i++ {
		id, err := client.AniListIDFor(context.Background(), TitleRef{TMDBID: 550, Type: models.MediaTypeMovie})
		if err != nil {
			t.Fatalf("AniListIDFor: %v", err)
		}
		if id != 0 {
			t.Errorf("id = %d, want 0", id)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (negative result not cached)", got)
	}
}

func TestBridgeTMDBFromMAL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mal_id"); got != "5114" {
			t.Errorf("mal_id = %q", got)
		}
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{{"anilist_id": 5114, "tmdb_show_id": 31911}},
		})
	}))
	defer srv.Close()

	client := NewBridgeClient(config.ProvidersConfig{AniBridgeURL: srv.URL}, newTestStore(t))

	id, mediaType, err := client.TMDBFromMAL(context.Background(), "5114")
	if err != nil {
		t.Fatalf("TMDBFromMAL: %v", err)
	}
	if id != 31911 || mediaType != models.MediaTypeSeries {
		t.Errorf("got %d %s", id, mediaType)
	}
}

func TestBridgeKitsuMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("source") {
		case "kitsu":
			writeJSON(t, w, map[string]any{"anilist": 1, "kitsu": 1, "tmdb": 31911})
		case "tmdb":
			writeJSON(t, w, map[string]any{"kitsu": 1, "tmdb": 31911})
		default:
			t.Errorf("unexpected source %q", q.Get("source"))
		}
	}))
	defer srv.Close()

	client := NewBridgeClient(config.ProvidersConfig{ARMBaseURL: srv.URL}, newTestStore(t))

	tmdbID, err := client.TMDBFromKitsu(context.Background(), "1")
	if err != nil {
		t.Fatalf("TMDBFromKitsu: %v", err)
	}
	if tmdbID != 31911 {
		t.Errorf("tmdbID = %d", tmdbID)
	}

	kitsuID, err := client.KitsuFromTMDB(context.Background(), 31911)
	if err != nil {
		t.Fatalf("KitsuFromTMDB: %v", err)
	}
	if kitsuID != 1 {
		t.Errorf("kitsuID = %d", kitsuID)
	}
}

func TestStremioLibraryCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["collection"] != "libraryItem" || body["all"] != true {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, map[string]any{
			"result": []map[string]any{
				{"_id": "tt0111161", "type": "movie", "name": "The Shawshank Redemption"},
			},
		})
	}))
	defer srv.Close()

	client := NewStremioClient(config.ProvidersConfig{StremioAPIURL: srv.URL}, newTestStore(t))

	for i := 0; i < 2; i++ {
		items, err := client.Library(context.Background(), "auth-key-123")
		if err != nil {
			t.Fatalf("Library: %v", err)
		}
		if len(items) != 1 || items[0].ID != "tt0111161" {
			t.Errorf("items = %+v", items)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestMDBListLibraryMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sync/watched":
			writeJSON(t, w, map[string]any{
				"movies": []map[string]any{
					{"movie": map[string]any{"title": "Fight Club", "ids": map[string]any{"imdb": "tt0137523", "tmdb": 550}},
						"last_watched_at": "2026-08-01T12:00:00Z"},
				},
				"episodes": []map[string]any{
					{"episode": map[string]any{"season": 1, "number": 3,
						"show": map[string]any{"title": "Severance", "ids": map[string]any{"imdb": "tt11280740"}}},
						"last_watched_at": "2026-08-10T12:00:00Z"},
					{"episode": map[string]any{"season": 2, "number": 1,
						"show": map[string]any{"title": "Severance", "ids": map[string]any{"imdb": "tt11280740"}}},
						"last_watched_at": "2026-08-20T12:00:00Z"},
				},
			})
		case "/sync/playback":
			writeJSON(t, w, []map[string]any{
				{"ids": map[string]any{"tmdb": 27205}, "type": "movie", "title": "Inception",
					"progress": 42.5, "paused_at": "2026-08-25T12:00:00Z"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewMDBListClient(config.ProvidersConfig{MDBListBaseURL: srv.URL}, newTestStore(t))

	items, err := client.Library(context.Background(), "api-key")
	if err != nil {
		t.Fatalf("Library: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3 (movie + merged show + playback)", len(items))
	}

	byID := make(map[string]models.LibraryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	movie := byID["tt0137523"]
	if !movie.State.FlaggedAsWatched || movie.TMDBID != "tmdb:550" {
		t.Errorf("movie = %+v", movie)
	}

	show := byID["tt11280740"]
	if show.State.Season != 2 || show.State.Episode != 1 {
		t.Errorf("show depth = S%dE%d, want S2E1", show.State.Season, show.State.Episode)
	}

	playing := byID["tmdb:27205"]
	if playing.State.FlaggedAsWatched || playing.State.TimeOffset != 42.5 || playing.State.Duration != 100 {
		t.Errorf("playback = %+v", playing.State)
	}
}
